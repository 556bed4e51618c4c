// SPDX-License-Identifier: Apache-2.0

package mac

import "github.com/openlte-go/fdd-enb/bitio"

// TruncatedBsr carries one LCG ID and its quantized buffer-size range,
// 36.321 v10.2.0 Section 6.1.3.1.
type TruncatedBsr struct {
	LcgID         uint8
	MinBufferSize uint32
	MaxBufferSize uint32
}

func (b *TruncatedBsr) pack(w *bitio.Writer) error {
	if err := w.Write(uint32(b.LcgID), 2); err != nil {
		return err
	}
	return w.Write(uint32(BsrIndex(b.MinBufferSize, b.MaxBufferSize)), 6)
}

func (b *TruncatedBsr) unpack(r *bitio.Reader) error {
	lcgID, err := r.Read(2)
	if err != nil {
		return err
	}
	idx, err := r.Read(6)
	if err != nil {
		return err
	}
	b.LcgID = uint8(lcgID)
	b.MinBufferSize, b.MaxBufferSize = BsrRange(uint8(idx))
	return nil
}

// ShortBsr has the identical wire layout to TruncatedBsr; 36.321 names them
// separately because they occupy different LCID code points, not because
// they differ in content.
type ShortBsr struct {
	LcgID         uint8
	MinBufferSize uint32
	MaxBufferSize uint32
}

func (b *ShortBsr) pack(w *bitio.Writer) error {
	tb := TruncatedBsr{LcgID: b.LcgID, MinBufferSize: b.MinBufferSize, MaxBufferSize: b.MaxBufferSize}
	return tb.pack(w)
}

func (b *ShortBsr) unpack(r *bitio.Reader) error {
	var tb TruncatedBsr
	if err := tb.unpack(r); err != nil {
		return err
	}
	b.LcgID, b.MinBufferSize, b.MaxBufferSize = tb.LcgID, tb.MinBufferSize, tb.MaxBufferSize
	return nil
}

// LongBsr carries one buffer-size range per LCG 0-3, Section 6.1.3.1.
type LongBsr struct {
	MinBufferSize [4]uint32
	MaxBufferSize [4]uint32
}

func (b *LongBsr) pack(w *bitio.Writer) error {
	for i := 0; i < 4; i++ {
		if err := w.Write(uint32(BsrIndex(b.MinBufferSize[i], b.MaxBufferSize[i])), 6); err != nil {
			return err
		}
	}
	return nil
}

func (b *LongBsr) unpack(r *bitio.Reader) error {
	for i := 0; i < 4; i++ {
		idx, err := r.Read(6)
		if err != nil {
			return err
		}
		b.MinBufferSize[i], b.MaxBufferSize[i] = BsrRange(uint8(idx))
	}
	return nil
}

// CRnti carries a UE's Cell RNTI, Section 6.1.3.2.
type CRnti struct {
	CRnti uint16
}

func (c *CRnti) pack(w *bitio.Writer) error {
	return w.Write(uint32(c.CRnti), 16)
}

func (c *CRnti) unpack(r *bitio.Reader) error {
	v, err := r.Read(16)
	if err != nil {
		return err
	}
	c.CRnti = uint16(v)
	return nil
}

// TaCommand carries a 6-bit timing advance command, Section 6.1.3.5.
type TaCommand struct {
	Ta uint8
}

func (t *TaCommand) pack(w *bitio.Writer) error {
	if err := w.Write(0, 2); err != nil {
		return err
	}
	return w.Write(uint32(t.Ta), 6)
}

func (t *TaCommand) unpack(r *bitio.Reader) error {
	if err := r.SkipBits(2); err != nil {
		return err
	}
	v, err := r.Read(6)
	if err != nil {
		return err
	}
	t.Ta = uint8(v)
	return nil
}

// PowerHeadroom carries a 6-bit power headroom report, Section 6.1.3.6.
type PowerHeadroom struct {
	Ph uint8
}

func (p *PowerHeadroom) pack(w *bitio.Writer) error {
	if err := w.Write(0, 2); err != nil {
		return err
	}
	return w.Write(uint32(p.Ph), 6)
}

func (p *PowerHeadroom) unpack(r *bitio.Reader) error {
	if err := r.SkipBits(2); err != nil {
		return err
	}
	v, err := r.Read(6)
	if err != nil {
		return err
	}
	p.Ph = uint8(v)
	return nil
}

// UeContentionResolutionID carries the 48-bit UE contention resolution
// identity, Section 6.1.3.4, packed as a 16-bit then a 32-bit field to match
// the original's two-call split of the 64-bit id value (the top 16 bits of
// ID are not sent).
type UeContentionResolutionID struct {
	ID uint64
}

func (u *UeContentionResolutionID) pack(w *bitio.Writer) error {
	if err := w.Write(uint32(u.ID>>32), 16); err != nil {
		return err
	}
	return w.Write(uint32(u.ID), 32)
}

func (u *UeContentionResolutionID) unpack(r *bitio.Reader) error {
	hi, err := r.Read(16)
	if err != nil {
		return err
	}
	lo, err := r.Read(32)
	if err != nil {
		return err
	}
	u.ID = uint64(hi)<<32 | uint64(lo)
	return nil
}

// ActivationDeactivation carries the per-SCell activation bitmap,
// Section 6.1.3.8. C1 is the lowest-indexed SCell.
type ActivationDeactivation struct {
	C1, C2, C3, C4, C5, C6, C7 bool
}

func (a *ActivationDeactivation) pack(w *bitio.Writer) error {
	for _, c := range []bool{a.C7, a.C6, a.C5, a.C4, a.C3, a.C2, a.C1} {
		if err := w.Write(b2u(c), 1); err != nil {
			return err
		}
	}
	return w.Write(0, 1) // R
}

func (a *ActivationDeactivation) unpack(r *bitio.Reader) error {
	bits := make([]bool, 7)
	for i := range bits {
		v, err := r.Read(1)
		if err != nil {
			return err
		}
		bits[i] = v != 0
	}
	a.C7, a.C6, a.C5, a.C4, a.C3, a.C2, a.C1 = bits[0], bits[1], bits[2], bits[3], bits[4], bits[5], bits[6]
	return r.SkipBits(1) // R
}

// McSchedInfoItem is one (LCID, MCH subframe stop) pair of an MCH
// Scheduling Information CE, Section 6.1.3.7.
type McSchedInfoItem struct {
	LCID    uint8
	StopMCH uint16
}

// McSchedInfo carries zero or more MCH Scheduling Information items.
type McSchedInfo struct {
	Items []McSchedInfoItem
}

func (m *McSchedInfo) pack(w *bitio.Writer) error {
	if len(m.Items) > MchSchedInfoMaxNItems {
		return ErrInvalidInput
	}
	for _, item := range m.Items {
		if err := w.Write(uint32(item.LCID), 5); err != nil {
			return err
		}
		if err := w.Write(uint32(item.StopMCH), 11); err != nil {
			return err
		}
	}
	return nil
}

func (m *McSchedInfo) unpack(r *bitio.Reader, nItems int) error {
	if nItems > MchSchedInfoMaxNItems {
		return ErrInvalidInput
	}
	m.Items = make([]McSchedInfoItem, nItems)
	for i := 0; i < nItems; i++ {
		lcid, err := r.Read(5)
		if err != nil {
			return err
		}
		stop, err := r.Read(11)
		if err != nil {
			return err
		}
		m.Items[i] = McSchedInfoItem{LCID: uint8(lcid), StopMCH: uint16(stop)}
	}
	return nil
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
