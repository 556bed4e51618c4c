// SPDX-License-Identifier: Apache-2.0

package mac

import (
	"bytes"
	"testing"
)

// S4 — RAR (BI).
func TestScenarioS4RarBI(t *testing.T) {
	r := &RarPdu{HdrType: RarHdrTypeBI, BackoffIndicator: 5}
	got, err := r.Pack()
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	want := []byte{0x05}
	if !bytes.Equal(got, want) {
		t.Fatalf("Pack = % X, want % X", got, want)
	}

	decoded := &RarPdu{}
	if err := decoded.Unpack(got); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if decoded.HdrType != RarHdrTypeBI || decoded.BackoffIndicator != 5 {
		t.Fatalf("decoded = %+v", decoded)
	}
}

// S5 — RAR (RAPID).
func TestScenarioS5RarRapid(t *testing.T) {
	r := &RarPdu{
		HdrType:      RarHdrTypeRAPID,
		RAPID:        1,
		TimingAdvCmd: 2,
		HoppingFlag:  false,
		Rba:          3,
		Mcs:          4,
		TpcCommand:   5,
		UlDelay:      false,
		CsiReq:       true,
		TempCRnti:    0x1234,
	}
	got, err := r.Pack()
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	want := []byte{0x41, 0x00, 0x20, 0x06, 0x95, 0x12, 0x34}
	if !bytes.Equal(got, want) {
		t.Fatalf("Pack = % X, want % X", got, want)
	}

	decoded := &RarPdu{}
	if err := decoded.Unpack(got); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if decoded.HdrType != RarHdrTypeRAPID ||
		decoded.RAPID != 1 ||
		decoded.TimingAdvCmd != 2 ||
		decoded.HoppingFlag != false ||
		decoded.Rba != 3 ||
		decoded.Mcs != 4 ||
		decoded.TpcCommand != 5 ||
		decoded.UlDelay != false ||
		decoded.CsiReq != true ||
		decoded.TempCRnti != 0x1234 {
		t.Fatalf("decoded = %+v, want %+v", decoded, r)
	}
}

func TestRarRoundTripBothHeaderTypes(t *testing.T) {
	cases := []RarPdu{
		{HdrType: RarHdrTypeBI, BackoffIndicator: 15},
		{HdrType: RarHdrTypeRAPID, RAPID: 63, TimingAdvCmd: 2047, HoppingFlag: true,
			Rba: 1023, Mcs: 15, TpcCommand: 7, UlDelay: true, CsiReq: false, TempCRnti: 0xFFFF},
	}
	for _, want := range cases {
		b, err := want.Pack()
		if err != nil {
			t.Fatalf("Pack(%+v): %v", want, err)
		}
		got := &RarPdu{}
		if err := got.Unpack(b); err != nil {
			t.Fatalf("Unpack: %v", err)
		}
		if *got != want {
			t.Fatalf("round trip = %+v, want %+v", got, want)
		}
	}
}

func TestPackRandomAccessResponsePdusRejectsMultiple(t *testing.T) {
	rars := []RarPdu{
		{HdrType: RarHdrTypeBI, BackoffIndicator: 1},
		{HdrType: RarHdrTypeBI, BackoffIndicator: 2},
	}
	if _, err := PackRandomAccessResponsePdus(rars); err != ErrInvalidInput {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if _, err := PackRandomAccessResponsePdus(nil); err != ErrInvalidInput {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
