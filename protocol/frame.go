package protocol

// Assemble builds an outgoing command frame: a control header for simple
// commands, or a control header followed by an extended header and
// payload for commands that carry a body (SetConfig, GenericData, and
// authenticated variants built on GenericData).
func Assemble(cmd CommandType, id uint8, attribute AttributeMask, payload []byte) []byte {
	ctrl := EncodeCtrl(CtrlHeader{Type: cmd, ID: id, Attribute: attribute})
	if len(payload) == 0 {
		return ctrl[:]
	}
	ext := EncodeExt(ExtendedHeader{Attribute: attribute, Next: false, Size: uint16(len(payload))})
	out := make([]byte, 0, 8+len(payload))
	out = append(out, ctrl[:]...)
	out = append(out, ext[:]...)
	out = append(out, payload...)
	return out
}

// IsChainedPayload reports whether a data header's type carries a PutData
// chain that the Chain Walker must interpret, as opposed to an opaque or
// ignored body.
func (h DataHeader) IsChainedPayload() bool {
	return h.Type == CmdPutData
}

// IsSimpleAck reports whether a data header's type is an acknowledgement
// whose payload (if any) is ignored by the core.
func (h DataHeader) IsSimpleAck() bool {
	switch h.Type {
	case CmdAccept, CmdReject, CmdSync, CmdConnect, CmdDisconnect, CmdHead:
		return true
	default:
		return false
	}
}

// Disassemble splits an incoming frame into its data header and the raw
// bytes that follow. It never interprets logical packets: that's the
// Chain Walker's job. It only validates framing.
//
// Disassemble fails with ErrShortFrame if fewer than 4 bytes are given, or
// ErrUnknownType for the reserved type 0x00, which no recognized command or
// response uses. Any other type, recognized or not, passes through with
// its trailing bytes intact: undocumented control types are accepted
// without semantic interpretation.
func Disassemble(frame []byte) (DataHeader, []byte, error) {
	if len(frame) < 4 {
		return DataHeader{}, nil, ErrShortFrame
	}
	hdr, err := DecodeDataHdr(frame[:4])
	if err != nil {
		return DataHeader{}, nil, err
	}
	if hdr.Type == 0 {
		return DataHeader{}, nil, ErrUnknownType
	}
	return hdr, frame[4:], nil
}
