package protocol

import "github.com/snksoft/crc"

// pdWrappedCRCParams describes the 8-bit CRC used to validate PD-wrapped
// inner event records: polynomial 0x29, init 0x00, no input/output
// reflection, no final XOR.
var pdWrappedCRCParams = &crc.Parameters{
	Width:      8,
	Polynomial: 0x29,
	Init:       0x00,
	ReflectIn:  false,
	ReflectOut: false,
	FinalXor:   0x00,
	Name:       "CRC-8/KM003C",
}

var pdWrappedCRCTable = crc.NewTable(pdWrappedCRCParams)

// crc8Poly0x29 computes the CRC used to authenticate a PD-wrapped header.
func crc8Poly0x29(data []byte) byte {
	c := pdWrappedCRCTable.InitCrc()
	c = pdWrappedCRCTable.UpdateCrc(c, data)
	return byte(pdWrappedCRCTable.CRC8(c))
}
