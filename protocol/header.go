package protocol

import "encoding/binary"

// This file is the Bit Codec: every header in the protocol is a 4-byte
// little-endian bitfield, and mask/shift packing is centralized here
// rather than left to struct layout tricks or compiler-specific packing.

// bits extracts a width-bit field starting at offset from v.
func bits(v uint32, offset, width uint) uint32 {
	mask := uint32(1)<<width - 1
	return (v >> offset) & mask
}

// withBits returns v with a width-bit field at offset replaced by value.
func withBits(v uint32, offset, width uint, value uint32) uint32 {
	mask := uint32(1)<<width - 1
	v &^= mask << offset
	v |= (value & mask) << offset
	return v
}

// CtrlHeader is the 4-byte control header: host->device commands, and
// device->host acks.
type CtrlHeader struct {
	Type      CommandType
	Extend    bool
	ID        uint8
	Attribute AttributeMask
	Reserved  bool
}

// EncodeCtrl packs a CtrlHeader into its 4-byte little-endian wire form.
func EncodeCtrl(h CtrlHeader) [4]byte {
	var v uint32
	v = withBits(v, 0, 7, uint32(h.Type)&0x7F)
	v = withBits(v, 7, 1, boolBit(h.Extend))
	v = withBits(v, 8, 8, uint32(h.ID))
	v = withBits(v, 16, 15, uint32(h.Attribute)&0x7FFF)
	v = withBits(v, 31, 1, boolBit(h.Reserved))
	var out [4]byte
	binary.LittleEndian.PutUint32(out[:], v)
	return out
}

// DecodeCtrl unpacks a 4-byte little-endian control header. It fails only
// with ErrShortBuffer.
func DecodeCtrl(b []byte) (CtrlHeader, error) {
	if len(b) < 4 {
		return CtrlHeader{}, ErrShortBuffer
	}
	v := binary.LittleEndian.Uint32(b[:4])
	return CtrlHeader{
		Type:      CommandType(bits(v, 0, 7)),
		Extend:    bits(v, 7, 1) != 0,
		ID:        uint8(bits(v, 8, 8)),
		Attribute: AttributeMask(bits(v, 16, 15)),
		Reserved:  bits(v, 31, 1) != 0,
	}, nil
}

// DataHeader is the 4-byte data header prefixing device->host responses
// with type >= 0x40.
type DataHeader struct {
	Type          CommandType
	ReservedFlag  bool
	ID            uint8
	ObjCountWords uint16
}

// EncodeDataHdr packs a DataHeader into its 4-byte little-endian wire form.
func EncodeDataHdr(h DataHeader) [4]byte {
	var v uint32
	v = withBits(v, 0, 7, uint32(h.Type)&0x7F)
	v = withBits(v, 7, 1, boolBit(h.ReservedFlag))
	v = withBits(v, 8, 8, uint32(h.ID))
	v = withBits(v, 16, 16, uint32(h.ObjCountWords))
	var out [4]byte
	binary.LittleEndian.PutUint32(out[:], v)
	return out
}

// DecodeDataHdr unpacks a 4-byte little-endian data header. It fails only
// with ErrShortBuffer.
func DecodeDataHdr(b []byte) (DataHeader, error) {
	if len(b) < 4 {
		return DataHeader{}, ErrShortBuffer
	}
	v := binary.LittleEndian.Uint32(b[:4])
	return DataHeader{
		Type:          CommandType(bits(v, 0, 7)),
		ReservedFlag:  bits(v, 7, 1) != 0,
		ID:            uint8(bits(v, 8, 8)),
		ObjCountWords: uint16(bits(v, 16, 16)),
	}, nil
}

// ExtendedHeader is the 4-byte logical-packet header prefixing each body
// inside a PutData payload.
//
// The wire places size immediately after the next-flag, with chunk in the
// top 6 bits. This layout reproduces a worked example ("ext={attr=Adc,
// next=0, size=44}" encoding as the bytes "01 00 2C 00") and is
// authoritative over any prose description that would put chunk and size
// the other way around. See DESIGN.md.
type ExtendedHeader struct {
	Attribute AttributeMask
	Next      bool
	Size      uint16
	Chunk     uint8
}

// EncodeExt packs an ExtendedHeader into its 4-byte little-endian wire form.
func EncodeExt(h ExtendedHeader) [4]byte {
	var v uint32
	v = withBits(v, 0, 15, uint32(h.Attribute)&0x7FFF)
	v = withBits(v, 15, 1, boolBit(h.Next))
	v = withBits(v, 16, 10, uint32(h.Size)&0x3FF)
	v = withBits(v, 26, 6, uint32(h.Chunk)&0x3F)
	var out [4]byte
	binary.LittleEndian.PutUint32(out[:], v)
	return out
}

// DecodeExt unpacks a 4-byte little-endian extended header. It fails only
// with ErrShortBuffer.
func DecodeExt(b []byte) (ExtendedHeader, error) {
	if len(b) < 4 {
		return ExtendedHeader{}, ErrShortBuffer
	}
	v := binary.LittleEndian.Uint32(b[:4])
	return ExtendedHeader{
		Attribute: AttributeMask(bits(v, 0, 15)),
		Next:      bits(v, 15, 1) != 0,
		Size:      uint16(bits(v, 16, 10)),
		Chunk:     uint8(bits(v, 26, 6)),
	}, nil
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
