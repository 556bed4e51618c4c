// SPDX-License-Identifier: Apache-2.0

package mac

import "github.com/openlte-go/fdd-enb/bitio"

// EphCell is one cell's entry inside an Extended Power Headroom Report,
// Section 6.1.3.6a. PCmax is present on the wire only when V is false.
type EphCell struct {
	P     bool
	V     bool
	Ph    uint8
	PCmax uint8
}

func (c *EphCell) pack(w *bitio.Writer) error {
	if err := w.Write(b2u(c.P), 1); err != nil {
		return err
	}
	if err := w.Write(b2u(c.V), 1); err != nil {
		return err
	}
	if err := w.Write(uint32(c.Ph), 6); err != nil {
		return err
	}
	if !c.V {
		if err := w.Write(0, 2); err != nil { // R
			return err
		}
		if err := w.Write(uint32(c.PCmax), 6); err != nil {
			return err
		}
	}
	return nil
}

func (c *EphCell) unpack(r *bitio.Reader) error {
	p, err := r.Read(1)
	if err != nil {
		return err
	}
	v, err := r.Read(1)
	if err != nil {
		return err
	}
	ph, err := r.Read(6)
	if err != nil {
		return err
	}
	c.P, c.V, c.Ph = p != 0, v != 0, uint8(ph)
	if !c.V {
		if err := r.SkipBits(2); err != nil { // R
			return err
		}
		pcmax, err := r.Read(6)
		if err != nil {
			return err
		}
		c.PCmax = uint8(pcmax)
	}
	return nil
}

// ExtendedPowerHeadroomReport carries per-cell power headroom across a PCell
// and up to 7 SCells, Section 6.1.3.6a. Encoding this CE is symmetric:
// PcellType2Present is an explicit field the caller sets. Decoding it is
// not: whether the PCell Type 2 entry is present on the wire depends on
// simultaneousPUCCHPUSCH, a UE capability the CE itself carries no bit for,
// so Unpack takes it as an explicit parameter rather than deriving it.
type ExtendedPowerHeadroomReport struct {
	ScellPresent      [7]bool
	PcellType2Present bool
	PcellType2        EphCell
	PcellType1        EphCell
	Scell             [7]EphCell
}

func (e *ExtendedPowerHeadroomReport) pack(w *bitio.Writer) error {
	for i := 0; i < 7; i++ {
		if err := w.Write(b2u(e.ScellPresent[6-i]), 1); err != nil {
			return err
		}
	}
	if err := w.Write(0, 1); err != nil { // R
		return err
	}
	if e.PcellType2Present {
		if err := e.PcellType2.pack(w); err != nil {
			return err
		}
	}
	if err := e.PcellType1.pack(w); err != nil {
		return err
	}
	for i := 0; i < 7; i++ {
		if e.ScellPresent[i] {
			if err := e.Scell[i].pack(w); err != nil {
				return err
			}
		}
	}
	return nil
}

// Unpack decodes an Extended Power Headroom Report. simultaneousPUCCHPUSCH
// must be the value configured for the reporting UE: it is not recoverable
// from the CE bits themselves.
func (e *ExtendedPowerHeadroomReport) Unpack(r *bitio.Reader, simultaneousPUCCHPUSCH bool) error {
	for i := 0; i < 7; i++ {
		v, err := r.Read(1)
		if err != nil {
			return err
		}
		e.ScellPresent[6-i] = v != 0
	}
	if err := r.SkipBits(1); err != nil { // R
		return err
	}
	e.PcellType2Present = false
	if simultaneousPUCCHPUSCH {
		e.PcellType2Present = true
		if err := e.PcellType2.unpack(r); err != nil {
			return err
		}
	}
	if err := e.PcellType1.unpack(r); err != nil {
		return err
	}
	for i := 0; i < 7; i++ {
		if e.ScellPresent[i] {
			if err := e.Scell[i].unpack(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// ByteLength returns the number of whole bytes this report occupies on the
// wire, the value the Extended Power Headroom Report subheader's length
// field must carry.
func (e *ExtendedPowerHeadroomReport) ByteLength() uint32 {
	length := uint32(1) // SCell presence + R byte
	if e.PcellType2Present {
		length++
		if !e.PcellType2.V {
			length++
		}
	}
	length++ // PCell Type 1
	if !e.PcellType1.V {
		length++
	}
	for i := 0; i < 7; i++ {
		if e.ScellPresent[i] {
			length++
			if !e.Scell[i].V {
				length++
			}
		}
	}
	return length
}
