package protocol

import (
	"bytes"
	"testing"
)

func TestDecodePdPreludeShort(t *testing.T) {
	_, err := DecodePdPrelude(make([]byte, 11))
	if err != ErrTruncated {
		t.Errorf("want ErrTruncated, got %v", err)
	}
}

func TestDecodePdEventStreamConnectionEvent(t *testing.T) {
	prelude := make([]byte, PdPreludeSizeBytes)
	// meta header + body for a CC2 attach event.
	record := []byte{0xC9, 0x11, 0x00, 0x00, 0x00, 0x00, 0x02, 0x00, 0x45, 0x21}
	body := append(append([]byte{}, prelude...), record...)

	stream, err := DecodePdEventStream(body)
	if err != nil {
		t.Fatalf("DecodePdEventStream: %v", err)
	}
	if len(stream.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(stream.Events))
	}
	ev := stream.Events[0]
	if ev.Kind != PdEventConnection {
		t.Fatalf("Kind = %v, want PdEventConnection", ev.Kind)
	}
	if ev.Timestamp != 0x000011C9 {
		t.Errorf("Timestamp = 0x%X, want 0x11C9", ev.Timestamp)
	}
	if ev.Connection.Action != ConnectionActionAttach {
		t.Errorf("Action = %v, want Attach", ev.Connection.Action)
	}
	if ev.Connection.CCPin != CCPin2 {
		t.Errorf("CCPin = %v, want CC2", ev.Connection.CCPin)
	}
}

func buildWrappedRecordBody(srcToSnk bool, wire []byte) []byte {
	h1 := byte(0x00)
	if srcToSnk {
		h1 |= 0x04
	}
	h2 := byte(0x00) // SOP: low 3 bits must be zero
	h3 := byte(0x00)
	crc := crc8Poly0x29([]byte{h1, h2, h3})
	body := []byte{0xAA, h1, h2, h3, crc, 0xAA, 0, 0, 0, 0, 0, 0, 0}
	body = append(body, wire...)
	return body
}

func TestDecodePdEventStreamWrappedMessage(t *testing.T) {
	prelude := make([]byte, PdPreludeSizeBytes)
	wire := []byte{0x61, 0x11, 0x22, 0x33}
	recBody := buildWrappedRecordBody(true, wire)
	meta := []byte{0, 0, 0, 0, 0, 0, byte(len(recBody)), 0}
	full := append(append(append([]byte{}, prelude...), meta...), recBody...)

	stream, err := DecodePdEventStream(full)
	if err != nil {
		t.Fatalf("DecodePdEventStream: %v", err)
	}
	if len(stream.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(stream.Events))
	}
	ev := stream.Events[0]
	if ev.Kind != PdEventWrapped {
		t.Fatalf("Kind = %v, want PdEventWrapped", ev.Kind)
	}
	if !ev.Wrapped.SrcToSnk {
		t.Errorf("SrcToSnk = false, want true")
	}
	if !bytes.Equal(ev.Wrapped.Wire, wire) {
		t.Errorf("Wire = % x, want % x", ev.Wrapped.Wire, wire)
	}
}

func TestDecodePdEventStreamBadCRCFallsThroughToStatus(t *testing.T) {
	prelude := make([]byte, PdPreludeSizeBytes)
	// Looks PD-wrapped but the CRC byte is wrong; must fall through to the
	// 8-byte status interpretation.
	recBody := []byte{0xAA, 0x00, 0x00, 0x00, 0xFF, 0xAA, 0, 0, 0, 0, 0, 0, 0}
	meta := []byte{0, 0, 0, 0, 0, 0, byte(len(recBody)), 0}
	full := append(append(append([]byte{}, prelude...), meta...), recBody...)

	stream, err := DecodePdEventStream(full)
	if err != nil {
		t.Fatalf("DecodePdEventStream: %v", err)
	}
	if stream.Events[0].Kind != PdEventStatus {
		t.Fatalf("Kind = %v, want PdEventStatus (bad CRC must fall through)", stream.Events[0].Kind)
	}
}

func TestDecodePdEventStreamTruncatedRecordStopsCleanly(t *testing.T) {
	prelude := make([]byte, PdPreludeSizeBytes)
	// Meta header declares a 10-byte body but only 3 bytes follow.
	meta := []byte{0, 0, 0, 0, 0, 0, 10, 0}
	full := append(append(append([]byte{}, prelude...), meta...), []byte{1, 2, 3}...)

	stream, err := DecodePdEventStream(full)
	if err != nil {
		t.Fatalf("DecodePdEventStream: %v", err)
	}
	if len(stream.Events) != 0 {
		t.Errorf("got %d events, want 0 (truncated record is end-of-stream, not an error)", len(stream.Events))
	}
}

func TestDecodePdEventStreamUnknownShortBody(t *testing.T) {
	prelude := make([]byte, PdPreludeSizeBytes)
	recBody := []byte{0x01, 0x02}
	meta := []byte{0, 0, 0, 0, 0, 0, byte(len(recBody)), 0}
	full := append(append(append([]byte{}, prelude...), meta...), recBody...)

	stream, err := DecodePdEventStream(full)
	if err != nil {
		t.Fatalf("DecodePdEventStream: %v", err)
	}
	if stream.Events[0].Kind != PdEventUnknown {
		t.Fatalf("Kind = %v, want PdEventUnknown", stream.Events[0].Kind)
	}
	if !bytes.Equal(stream.Events[0].RawBody, recBody) {
		t.Errorf("RawBody = % x, want % x", stream.Events[0].RawBody, recBody)
	}
}
