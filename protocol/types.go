// Package protocol implements the KM003C wire protocol: bitfield framing of
// control and data headers, decoding of the chained logical packets carried
// in a PutData payload, and the ADC/AdcQueue/PD payload decoders.
//
// Nothing in this package touches a transport. Every exported function is a
// pure transformation over byte slices; callers (see package session) are
// responsible for getting bytes on and off the wire.
package protocol

import "fmt"

// CommandType is the 7-bit command/response type carried in every header.
type CommandType byte

// Recognized command types. Values are fixed by the device firmware.
const (
	CmdSync        CommandType = 0x01
	CmdConnect     CommandType = 0x02
	CmdDisconnect  CommandType = 0x03
	CmdAccept      CommandType = 0x05
	CmdReject      CommandType = 0x06
	CmdGetData     CommandType = 0x0C
	CmdGetFile     CommandType = 0x0E
	CmdStartGraph  CommandType = 0x0E // same wire value as GetFile; disambiguated by attribute, per the AdcQueue start sequence
	CmdStopGraph   CommandType = 0x0F
	CmdStopStream  CommandType = 0x0F
	CmdSetConfig   CommandType = 0x10
	CmdResetConfig CommandType = 0x11
	CmdHead        CommandType = 0x40
	CmdPutData     CommandType = 0x41
	CmdGenericData CommandType = 0x48
)

// IsResponse reports whether a command type is in the device-to-host
// response range (type >= 0x40).
func (c CommandType) IsResponse() bool {
	return c >= 0x40
}

func (c CommandType) String() string {
	switch c {
	case CmdSync:
		return "Sync"
	case CmdConnect:
		return "Connect"
	case CmdDisconnect:
		return "Disconnect"
	case CmdAccept:
		return "Accept"
	case CmdReject:
		return "Reject"
	case CmdGetData:
		return "GetData"
	case CmdGetFile:
		return "GetFile/StartGraph"
	case CmdStopGraph:
		return "StopGraph/StopStream"
	case CmdSetConfig:
		return "SetConfig"
	case CmdResetConfig:
		return "ResetConfig"
	case CmdHead:
		return "Head"
	case CmdPutData:
		return "PutData"
	case CmdGenericData:
		return "GenericData"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", byte(c))
	}
}

// AttributeMask is the 15-bit logical-packet selector used in GetData
// requests and extended headers.
type AttributeMask uint16

// Recognized attribute bits.
const (
	AttrAdc         AttributeMask = 0x001
	AttrAdcQueue    AttributeMask = 0x002
	AttrAdcQueue10K AttributeMask = 0x004
	AttrSettings    AttributeMask = 0x008
	AttrPdPacket    AttributeMask = 0x010
	AttrPdStatus    AttributeMask = 0x020
	AttrQcPacket    AttributeMask = 0x040
	AttrDeviceInfo  AttributeMask = 0x1000
)

// Has reports whether bit is set in the mask.
func (a AttributeMask) Has(bit AttributeMask) bool {
	return a&bit != 0
}

// Bits returns the set attribute bits of the mask, in ascending order. This
// is the iteration order the device uses to chain logical packets in a
// combined GetData response that carries more than one attribute.
func (a AttributeMask) Bits() []AttributeMask {
	var out []AttributeMask
	for bit := AttributeMask(1); bit != 0 && bit <= a; bit <<= 1 {
		if a.Has(bit) {
			out = append(out, bit)
		}
	}
	return out
}

func (a AttributeMask) String() string {
	names := map[AttributeMask]string{
		AttrAdc:         "Adc",
		AttrAdcQueue:    "AdcQueue",
		AttrAdcQueue10K: "AdcQueue10K",
		AttrSettings:    "Settings",
		AttrPdPacket:    "PdPacket",
		AttrPdStatus:    "PdStatus",
		AttrQcPacket:    "QcPacket",
		AttrDeviceInfo:  "DeviceInfo",
	}
	if n, ok := names[a]; ok {
		return n
	}
	var parts []string
	for _, bit := range a.Bits() {
		if n, ok := names[bit]; ok {
			parts = append(parts, n)
		} else {
			parts = append(parts, fmt.Sprintf("0x%X", uint16(bit)))
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "|" + p
	}
	return out
}

// SampleRate is a streaming sample rate, expressed both as sps and as its
// 4-bit wire code.
type SampleRate byte

// Recognized sample rates and their wire codes.
const (
	Rate1Sps     SampleRate = 0
	Rate10Sps    SampleRate = 1
	Rate50Sps    SampleRate = 2
	Rate1000Sps  SampleRate = 3
	Rate10000Sps SampleRate = 4
)

var rateToSps = map[SampleRate]int{
	Rate1Sps:     1,
	Rate10Sps:    10,
	Rate50Sps:    50,
	Rate1000Sps:  1000,
	Rate10000Sps: 10000,
}

// Sps returns the samples-per-second value for a rate code.
func (r SampleRate) Sps() int {
	return rateToSps[r]
}

// ParseSampleRate maps a requested samples-per-second value to its wire
// code. An error is returned for any sps value the device does not define.
func ParseSampleRate(sps int) (SampleRate, error) {
	for code, s := range rateToSps {
		if s == sps {
			return code, nil
		}
	}
	return 0, fmt.Errorf("%w: %d sps", ErrUnsupportedRate, sps)
}
