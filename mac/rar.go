// SPDX-License-Identifier: Apache-2.0

package mac

import "github.com/openlte-go/fdd-enb/bitio"

// RarHdrType distinguishes a Backoff Indicator subheader from a
// Random-Access Preamble ID subheader inside a Random Access Response PDU,
// Section 6.1.5. The tag rides the wire as a single T bit, 0 for BI.
type RarHdrType uint8

const (
	RarHdrTypeBI    RarHdrType = 0
	RarHdrTypeRAPID RarHdrType = 1
)

// RarPdu is a Random Access Response PDU. Exactly one of the two field
// groups below applies, selected by HdrType: BackoffIndicator for
// RarHdrTypeBI, everything else for RarHdrTypeRAPID.
type RarPdu struct {
	HdrType RarHdrType

	BackoffIndicator uint8 // 4 bits, BI only

	RAPID         uint8  // 6 bits, RAPID only
	TimingAdvCmd  uint16 // 11 bits
	HoppingFlag   bool
	Rba           uint16 // 10 bits
	Mcs           uint8  // 4 bits
	TpcCommand    uint8  // 3 bits
	UlDelay       bool
	CsiReq        bool
	TempCRnti     uint16
}

// Pack encodes a single RAR PDU: the header byte, and for RAPID form the
// six-byte body that follows it.
func (r *RarPdu) Pack() ([]byte, error) {
	w := bitio.NewWriter(7)
	if err := w.Write(0, 1); err != nil { // E
		return nil, err
	}
	if err := w.Write(uint32(r.HdrType), 1); err != nil { // T
		return nil, err
	}

	switch r.HdrType {
	case RarHdrTypeBI:
		if err := w.Write(0, 2); err != nil { // R
			return nil, err
		}
		if err := w.Write(uint32(r.BackoffIndicator), 4); err != nil {
			return nil, err
		}
	case RarHdrTypeRAPID:
		if err := w.Write(uint32(r.RAPID), 6); err != nil {
			return nil, err
		}
		if err := w.Write(0, 1); err != nil { // R
			return nil, err
		}
		if err := w.Write(uint32(r.TimingAdvCmd), 11); err != nil {
			return nil, err
		}
		if err := w.Write(b2u(r.HoppingFlag), 1); err != nil {
			return nil, err
		}
		if err := w.Write(uint32(r.Rba), 10); err != nil {
			return nil, err
		}
		if err := w.Write(uint32(r.Mcs), 4); err != nil {
			return nil, err
		}
		if err := w.Write(uint32(r.TpcCommand), 3); err != nil {
			return nil, err
		}
		if err := w.Write(b2u(r.UlDelay), 1); err != nil {
			return nil, err
		}
		if err := w.Write(b2u(r.CsiReq), 1); err != nil {
			return nil, err
		}
		if err := w.Write(uint32(r.TempCRnti), 16); err != nil {
			return nil, err
		}
	default:
		return nil, ErrInvalidInput
	}

	return w.Bytes(), nil
}

// Unpack decodes a single RAR PDU from b.
func (r *RarPdu) Unpack(b []byte) error {
	br := bitio.NewReader(b)
	if err := br.SkipBits(1); err != nil { // E
		return err
	}
	t, err := br.Read(1)
	if err != nil {
		return err
	}
	r.HdrType = RarHdrType(t)

	switch r.HdrType {
	case RarHdrTypeBI:
		if err := br.SkipBits(2); err != nil { // R
			return err
		}
		bi, err := br.Read(4)
		if err != nil {
			return err
		}
		r.BackoffIndicator = uint8(bi)
	case RarHdrTypeRAPID:
		rapid, err := br.Read(6)
		if err != nil {
			return err
		}
		r.RAPID = uint8(rapid)
		if err := br.SkipBits(1); err != nil { // R
			return err
		}
		ta, err := br.Read(11)
		if err != nil {
			return err
		}
		r.TimingAdvCmd = uint16(ta)
		hop, err := br.Read(1)
		if err != nil {
			return err
		}
		r.HoppingFlag = hop != 0
		rba, err := br.Read(10)
		if err != nil {
			return err
		}
		r.Rba = uint16(rba)
		mcs, err := br.Read(4)
		if err != nil {
			return err
		}
		r.Mcs = uint8(mcs)
		tpc, err := br.Read(3)
		if err != nil {
			return err
		}
		r.TpcCommand = uint8(tpc)
		ulDelay, err := br.Read(1)
		if err != nil {
			return err
		}
		r.UlDelay = ulDelay != 0
		csi, err := br.Read(1)
		if err != nil {
			return err
		}
		r.CsiReq = csi != 0
		crnti, err := br.Read(16)
		if err != nil {
			return err
		}
		r.TempCRnti = uint16(crnti)
	default:
		return ErrInvalidInput
	}

	return nil
}

// PackRandomAccessResponsePdus enforces the single-RAR-per-PDU limit before
// delegating to Pack: more than one RAR in a PDU fails the encoder rather
// than silently truncating.
func PackRandomAccessResponsePdus(rars []RarPdu) ([]byte, error) {
	if len(rars) != 1 {
		return nil, ErrInvalidInput
	}
	return rars[0].Pack()
}
