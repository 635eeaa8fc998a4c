package protocol

// LogicalPacket is one decoded entry in a PutData payload's chain.
// Exactly one of the typed fields is non-nil, selected by Attribute; an
// attribute the core doesn't recognize decodes to RawBytes instead of
// failing the whole response.
type LogicalPacket struct {
	Attribute AttributeMask

	Adc      *Adc
	AdcQueue *AdcQueue
	PdStatus *PdStatus
	PdStream *PdEventStream

	// RawBytes holds the body verbatim for an unrecognized attribute.
	RawBytes []byte
}

// WalkChain decodes a PutData payload into its chain of logical packets.
// first is the already-decoded extended header for the first logical
// packet; rest is every byte following it.
//
// Declared size exceeding the remaining bytes, or a next=1 flag with fewer
// than 4 follow-on bytes, is ErrTruncated. An unrecognized attribute value
// is not an error: its body decodes to a RawBytes LogicalPacket.
func WalkChain(first ExtendedHeader, rest []byte) ([]LogicalPacket, error) {
	var out []LogicalPacket
	hdr := first
	cursor := rest
	for {
		size := int(hdr.Size)
		if size > len(cursor) {
			return out, ErrTruncated
		}
		body := cursor[:size]
		cursor = cursor[size:]

		pkt, err := decodeLogical(hdr.Attribute, body)
		if err != nil {
			return out, err
		}
		out = append(out, pkt)

		if !hdr.Next {
			return out, nil
		}
		if len(cursor) < 4 {
			return out, ErrTruncated
		}
		hdr, err = DecodeExt(cursor[:4])
		if err != nil {
			return out, err
		}
		cursor = cursor[4:]
	}
}

func decodeLogical(attr AttributeMask, body []byte) (LogicalPacket, error) {
	pkt := LogicalPacket{Attribute: attr}
	switch attr {
	case AttrAdc:
		adc, err := DecodeAdc(body)
		if err != nil {
			return LogicalPacket{}, err
		}
		pkt.Adc = &adc
	case AttrAdcQueue, AttrAdcQueue10K:
		q, err := DecodeAdcQueue(body)
		if err != nil {
			return LogicalPacket{}, err
		}
		pkt.AdcQueue = &q
	case AttrPdStatus:
		st, err := DecodePdStatus(body)
		if err != nil {
			return LogicalPacket{}, err
		}
		pkt.PdStatus = &st
	case AttrPdPacket:
		stream, err := DecodePdEventStream(body)
		if err != nil {
			return LogicalPacket{}, err
		}
		pkt.PdStream = &stream
	default:
		pkt.RawBytes = body
	}
	return pkt, nil
}
