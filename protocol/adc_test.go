package protocol

import (
	"math"
	"testing"
)

func sampleAdcBody() []byte {
	// vbus raw = 6000 (-> 6.000 V), giving the "70 17 00 00" opening bytes.
	a := Adc{
		VBus:        6.000,
		IBus:        1.500,
		VBusAvg:     5.998,
		IBusAvg:     1.499,
		VBusOriAvg:  6.001,
		IBusOriAvg:  1.501,
		TempC:       25.0,
		VCC1:        0.1234,
		VCC2:        0.0,
		VDP:         0.6,
		VDM:         0.0,
		InternalVDD: 3.3,
		RateIndex:   2,
		VCC2Avg:     0.0,
		VDPAvg:      0.6,
		VDMAvg:      0.0,
	}
	body := EncodeAdc(a)
	return body[:]
}

func TestDecodeAdcOpeningBytes(t *testing.T) {
	body := sampleAdcBody()
	if body[0] != 0x70 || body[1] != 0x17 || body[2] != 0x00 || body[3] != 0x00 {
		t.Fatalf("fixture does not match expected opening bytes: % x", body[:4])
	}
	adc, err := DecodeAdc(body)
	if err != nil {
		t.Fatalf("DecodeAdc: %v", err)
	}
	if math.Abs(adc.VBus-6.000) > 1e-9 {
		t.Errorf("VBus = %v, want ~6.000", adc.VBus)
	}
}

func TestAdcRoundTrip(t *testing.T) {
	want := Adc{
		VBus:        20.123,
		IBus:        -2.5,
		VBusAvg:     20.0,
		IBusAvg:     -2.4,
		VBusOriAvg:  20.1,
		IBusOriAvg:  -2.45,
		TempC:       36.5, // exact at hi=18, lo=64 (64*1000/128=500 -> 36.5)
		VCC1:        0.1,
		VCC2:        0.2,
		VDP:         0.3,
		VDM:         0.4,
		InternalVDD: 3.3,
		RateIndex:   3,
		VCC2Avg:     0.21,
		VDPAvg:      0.31,
		VDMAvg:      0.41,
	}
	enc := EncodeAdc(want)
	got, err := DecodeAdc(enc[:])
	if err != nil {
		t.Fatalf("DecodeAdc: %v", err)
	}
	if math.Abs(got.VBus-want.VBus) > 1e-6 || math.Abs(got.TempC-want.TempC) > 1e-6 {
		t.Errorf("round trip mismatch: want %+v got %+v", want, got)
	}
}

func TestDecodeAdcWrongSize(t *testing.T) {
	_, err := DecodeAdc(make([]byte, 43))
	if err != ErrWrongSize {
		t.Errorf("want ErrWrongSize, got %v", err)
	}
}

func TestAdcPowerW(t *testing.T) {
	a := Adc{VBus: 5.0, IBus: 2.0}
	if got := a.PowerW(); math.Abs(got-10.0) > 1e-9 {
		t.Errorf("PowerW = %v, want 10.0", got)
	}
}
