package protocol

import "encoding/binary"

// AdcSizeBytes is the fixed wire size of an ADC-44 logical packet body.
const AdcSizeBytes = 44

// Adc is a decoded ADC-44 snapshot. Values are in SI units (volts, amps,
// watts, degrees Celsius) except for the raw fields that have no
// documented scale.
//
// The wire scale for VBus/IBus (and their averages) is millivolt/milliamp
// despite their field names ("vbus_uv", "ibus_ua") suggesting micro-units;
// a worked decode example (raw 6000 giving "vbus_v ~= 6.000") is only
// consistent with a milli-unit raw value, and is taken as authoritative
// over the field-name suffix. See DESIGN.md.
type Adc struct {
	VBus    float64 // V
	IBus    float64 // A
	VBusAvg float64 // V
	IBusAvg float64 // A

	// VBusOriAvg and IBusOriAvg are the device's own averaging-window
	// accumulators; their scale matches VBus/IBus.
	VBusOriAvg float64 // V
	IBusOriAvg float64 // A

	TempC float64 // degrees Celsius, INA228/229 convention

	VCC1         float64 // V
	VCC2         float64 // V
	VDP          float64 // V
	VDM          float64 // V
	InternalVDD  float64 // V
	RateIndex    uint8
	VCC2Avg      float64 // V
	VDPAvg       float64 // V
	VDMAvg       float64 // V
}

// PowerW is the instantaneous bus power, vbus_v * ibus_a.
func (a Adc) PowerW() float64 {
	return a.VBus * a.IBus
}

// DecodeAdc decodes a 44-byte ADC-44 body. It requires body to be exactly
// AdcSizeBytes long; any other length is ErrWrongSize.
func DecodeAdc(body []byte) (Adc, error) {
	if len(body) != AdcSizeBytes {
		return Adc{}, ErrWrongSize
	}
	le := binary.LittleEndian
	i32 := func(off int) int32 { return int32(le.Uint32(body[off:])) }
	u16 := func(off int) uint16 { return le.Uint16(body[off:]) }

	tempRaw := int16(le.Uint16(body[24:]))

	a := Adc{
		VBus:        float64(i32(0)) / 1e3,
		IBus:        float64(i32(4)) / 1e3,
		VBusAvg:     float64(i32(8)) / 1e3,
		IBusAvg:     float64(i32(12)) / 1e3,
		VBusOriAvg:  float64(i32(16)) / 1e3,
		IBusOriAvg:  float64(i32(20)) / 1e3,
		TempC:       decodeTemp(tempRaw),
		VCC1:        float64(u16(26)) / 1e4,
		VCC2:        float64(u16(28)) / 1e4,
		VDP:         float64(u16(30)) / 1e4,
		VDM:         float64(u16(32)) / 1e4,
		InternalVDD: float64(u16(34)) / 1e4,
		RateIndex:   body[36],
		VCC2Avg:     float64(u16(38)) / 1e4,
		VDPAvg:      float64(u16(40)) / 1e4,
		VDMAvg:      float64(u16(42)) / 1e4,
	}
	return a, nil
}

// decodeTemp applies the INA228/229 temperature conversion:
// T_C = (hi*2000 + lo*1000/128) / 1000, where hi is the raw reading's
// high byte (2 degrees per count) and lo is its low byte (1/128 degree per
// count).
func decodeTemp(raw int16) float64 {
	hi := int(raw >> 8)
	lo := int(raw & 0xFF)
	return (float64(hi)*2000 + float64(lo)*1000/128) / 1000
}

// encodeTemp is the inverse of decodeTemp, used by tests to exercise the
// round-trip property that re-encoding an ADC-44 value reproduces the
// original 44 bytes.
func encodeTemp(c float64) int16 {
	milli := c * 1000
	hi := int(milli / 2000)
	remainder := milli - float64(hi)*2000
	lo := int(remainder * 128 / 1000)
	return int16(hi<<8 | (lo & 0xFF))
}

// EncodeAdc packs an Adc back into its 44-byte wire form. It is the
// inverse of DecodeAdc at the documented scales, used by round-trip tests.
func EncodeAdc(a Adc) [AdcSizeBytes]byte {
	var out [AdcSizeBytes]byte
	le := binary.LittleEndian
	putI32 := func(off int, v float64) { le.PutUint32(out[off:], uint32(int32(v*1e3))) }
	putU16 := func(off int, v float64) { le.PutUint16(out[off:], uint16(int32(v*1e4))) }

	putI32(0, a.VBus)
	putI32(4, a.IBus)
	putI32(8, a.VBusAvg)
	putI32(12, a.IBusAvg)
	putI32(16, a.VBusOriAvg)
	putI32(20, a.IBusOriAvg)
	le.PutUint16(out[24:], uint16(encodeTemp(a.TempC)))
	putU16(26, a.VCC1)
	putU16(28, a.VCC2)
	putU16(30, a.VDP)
	putU16(32, a.VDM)
	putU16(34, a.InternalVDD)
	out[36] = a.RateIndex
	out[37] = 0
	putU16(38, a.VCC2Avg)
	putU16(40, a.VDPAvg)
	putU16(42, a.VDMAvg)
	return out
}
