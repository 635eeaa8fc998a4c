package protocol

import (
	"encoding/binary"
	"math"
	"testing"
)

func encodeSample(s AdcSample) [AdcSampleSize]byte {
	var b [AdcSampleSize]byte
	le := binary.LittleEndian
	le.PutUint32(b[0:4], s.Sequence)
	le.PutUint32(b[4:8], uint32(int32(s.VBus*1e3)))
	le.PutUint32(b[8:12], uint32(int32(s.IBus*1e3)))
	le.PutUint16(b[12:14], uint16(s.CC1*1e4))
	le.PutUint16(b[14:16], uint16(s.CC2*1e4))
	le.PutUint16(b[16:18], uint16(s.VDP*1e4))
	le.PutUint16(b[18:20], uint16(s.VDM*1e4))
	return b
}

func buildQueueBody(rateCode uint16, samples []AdcSample) []byte {
	body := make([]byte, AdcQueueHeaderSize)
	binary.LittleEndian.PutUint16(body[0:2], rateCode)
	for _, s := range samples {
		enc := encodeSample(s)
		body = append(body, enc[:]...)
	}
	return body
}

func TestDecodeAdcQueue(t *testing.T) {
	samples := []AdcSample{
		{Sequence: 100, VBus: 5.0, IBus: 1.0, CC1: 0.6, CC2: 0.0, VDP: 0.6, VDM: 0.0},
		{Sequence: 101, VBus: 5.0, IBus: 1.01, CC1: 0.6, CC2: 0.0, VDP: 0.6, VDM: 0.0},
		{Sequence: 102, VBus: 5.0, IBus: 1.02, CC1: 0.6, CC2: 0.0, VDP: 0.6, VDM: 0.0},
	}
	body := buildQueueBody(3, samples)
	q, err := DecodeAdcQueue(body)
	if err != nil {
		t.Fatalf("DecodeAdcQueue: %v", err)
	}
	if q.RateCode != 3 {
		t.Errorf("RateCode = %d, want 3", q.RateCode)
	}
	if len(q.Samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(q.Samples))
	}
	for i, s := range q.Samples {
		if s.Sequence != samples[i].Sequence {
			t.Errorf("sample %d sequence = %d, want %d", i, s.Sequence, samples[i].Sequence)
		}
		if math.Abs(s.VBus-samples[i].VBus) > 1e-6 {
			t.Errorf("sample %d VBus = %v, want %v", i, s.VBus, samples[i].VBus)
		}
	}
	if gaps := q.Gaps(); len(gaps) != 2 || gaps[0] != 0 || gaps[1] != 0 {
		t.Errorf("Gaps() = %v, want [0 0]", gaps)
	}
}

func TestAdcQueueGapDetection(t *testing.T) {
	q := AdcQueue{Samples: []AdcSample{{Sequence: 100}, {Sequence: 110}, {Sequence: 113}}}
	gaps := q.Gaps()
	if len(gaps) != 2 {
		t.Fatalf("got %d gaps, want 2", len(gaps))
	}
	if gaps[0] != 9 {
		t.Errorf("gaps[0] = %d, want 9 (100..110 drops 9 samples)", gaps[0])
	}
	if gaps[1] != 2 {
		t.Errorf("gaps[1] = %d, want 2 (110..113 drops 2 samples)", gaps[1])
	}
}

func TestDecodeAdcQueueShortHeader(t *testing.T) {
	_, err := DecodeAdcQueue([]byte{1, 2, 3})
	if err != ErrWrongSize {
		t.Errorf("want ErrWrongSize, got %v", err)
	}
}

func TestDecodeAdcQueueMisalignedSamples(t *testing.T) {
	body := buildQueueBody(0, []AdcSample{{Sequence: 1}})
	body = body[:len(body)-1] // truncate one byte out of the last sample
	_, err := DecodeAdcQueue(body)
	if err != ErrTruncated {
		t.Errorf("want ErrTruncated, got %v", err)
	}
}
