// SPDX-License-Identifier: Apache-2.0

package mac

import (
	"github.com/openlte-go/fdd-enb/bitio"
	"github.com/openlte-go/fdd-enb/logger"
)

// MacSubheader is one entry of a MacPdu's header/payload trains. Payload
// holds the CE value or SDU bytes appropriate to LCID and the owning PDU's
// channel type:
//
//	SDU / unrecognized LCID     []byte
//	DRX Command, Padding        nil
//	Truncated BSR                *TruncatedBsr
//	Short BSR                    *ShortBsr
//	Long BSR                     *LongBsr
//	C-RNTI                       *CRnti
//	Timing Advance               *TaCommand
//	Power Headroom                *PowerHeadroom
//	Extended Power Headroom      *ExtendedPowerHeadroomReport
//	UE Contention Resolution ID  *UeContentionResolutionID
//	Activation/Deactivation      *ActivationDeactivation
//	MCH Scheduling Information   *McSchedInfo
type MacSubheader struct {
	LCID    uint8
	Payload any
}

// MacPdu is a DL-SCH, UL-SCH, or MCH multiplexing PDU: an ordered sequence
// of subheaders sharing one LCID namespace.
type MacPdu struct {
	ChanType   ChanType
	Subheaders []MacSubheader
}

// dlschNoLengthLCID reports whether a DL-SCH LCID's subheader omits the
// length field (fixed-size CE, or padding).
func dlschNoLengthLCID(lcid uint8) bool {
	switch lcid {
	case DlschActivationDeactivationLCID, DlschUeContentionResolutionIDLCID,
		DlschTaCommandLCID, DlschDrxCommandLCID, DlschPaddingLCID:
		return true
	}
	return false
}

// ulschNoLengthLCID reports whether a UL-SCH LCID's subheader omits the
// length field. Extended Power Headroom is not in this set: it carries a
// length field derived from its own contents.
func ulschNoLengthLCID(lcid uint8) bool {
	switch lcid {
	case UlschPowerHeadroomReportLCID, UlschCRntiLCID, UlschTruncatedBsrLCID,
		UlschShortBsrLCID, UlschLongBsrLCID, UlschPaddingLCID:
		return true
	}
	return false
}

func sduBytes(payload any) []byte {
	b, _ := payload.([]byte)
	return b
}

// Pack encodes the PDU as a header train followed by a payload train.
func (p *MacPdu) Pack() ([]byte, error) {
	if len(p.Subheaders) > MaxMacPduSubheaders {
		return nil, ErrInvalidInput
	}

	w := bitio.NewWriter(MaxMsgBytes)
	n := len(p.Subheaders)

	// Header train.
	for i, sh := range p.Subheaders {
		if err := w.Write(0, 2); err != nil { // R
			return nil, err
		}
		last := i == n-1
		if err := w.Write(b2u(!last), 1); err != nil { // E
			return nil, err
		}
		if err := w.Write(uint32(sh.LCID), 5); err != nil {
			return nil, err
		}
		if last {
			continue
		}

		switch p.ChanType {
		case ChanDLSCH:
			if !dlschNoLengthLCID(sh.LCID) {
				if err := packLength(w, uint32(len(sduBytes(sh.Payload)))); err != nil {
					return nil, err
				}
			}
		case ChanULSCH:
			if sh.LCID == UlschExtPowerHeadroomReportLCID {
				eph, ok := sh.Payload.(*ExtendedPowerHeadroomReport)
				if !ok {
					return nil, ErrInvalidInput
				}
				if err := packLength(w, eph.ByteLength()); err != nil {
					return nil, err
				}
			} else if !ulschNoLengthLCID(sh.LCID) {
				if err := packLength(w, uint32(len(sduBytes(sh.Payload)))); err != nil {
					return nil, err
				}
			}
		case ChanMCH:
			if sh.LCID == MchSchedulingInformationLCID {
				m, ok := sh.Payload.(*McSchedInfo)
				if !ok {
					return nil, ErrInvalidInput
				}
				if err := packLength(w, uint32(len(m.Items)*2)); err != nil {
					return nil, err
				}
			} else {
				if err := packLength(w, uint32(len(sduBytes(sh.Payload)))); err != nil {
					return nil, err
				}
			}
		}
	}

	// Payload train.
	for _, sh := range p.Subheaders {
		if err := p.packPayload(w, sh); err != nil {
			return nil, err
		}
	}

	return w.Bytes(), nil
}

func (p *MacPdu) packPayload(w *bitio.Writer, sh MacSubheader) error {
	switch p.ChanType {
	case ChanDLSCH:
		switch sh.LCID {
		case DlschActivationDeactivationLCID:
			v, ok := sh.Payload.(*ActivationDeactivation)
			if !ok {
				return ErrInvalidInput
			}
			return v.pack(w)
		case DlschUeContentionResolutionIDLCID:
			v, ok := sh.Payload.(*UeContentionResolutionID)
			if !ok {
				return ErrInvalidInput
			}
			return v.pack(w)
		case DlschTaCommandLCID:
			v, ok := sh.Payload.(*TaCommand)
			if !ok {
				return ErrInvalidInput
			}
			return v.pack(w)
		case DlschDrxCommandLCID, DlschPaddingLCID:
			return nil
		default:
			return packSduBytes(w, sduBytes(sh.Payload))
		}
	case ChanULSCH:
		switch sh.LCID {
		case UlschExtPowerHeadroomReportLCID:
			v, ok := sh.Payload.(*ExtendedPowerHeadroomReport)
			if !ok {
				return ErrInvalidInput
			}
			return v.pack(w)
		case UlschPowerHeadroomReportLCID:
			v, ok := sh.Payload.(*PowerHeadroom)
			if !ok {
				return ErrInvalidInput
			}
			return v.pack(w)
		case UlschCRntiLCID:
			v, ok := sh.Payload.(*CRnti)
			if !ok {
				return ErrInvalidInput
			}
			return v.pack(w)
		case UlschTruncatedBsrLCID:
			v, ok := sh.Payload.(*TruncatedBsr)
			if !ok {
				return ErrInvalidInput
			}
			return v.pack(w)
		case UlschShortBsrLCID:
			v, ok := sh.Payload.(*ShortBsr)
			if !ok {
				return ErrInvalidInput
			}
			return v.pack(w)
		case UlschLongBsrLCID:
			v, ok := sh.Payload.(*LongBsr)
			if !ok {
				return ErrInvalidInput
			}
			return v.pack(w)
		case UlschPaddingLCID:
			return nil
		default:
			return packSduBytes(w, sduBytes(sh.Payload))
		}
	default: // ChanMCH
		switch sh.LCID {
		case MchSchedulingInformationLCID:
			v, ok := sh.Payload.(*McSchedInfo)
			if !ok {
				return ErrInvalidInput
			}
			return v.pack(w)
		case MchPaddingLCID:
			return nil
		default:
			return packSduBytes(w, sduBytes(sh.Payload))
		}
	}
}

func packSduBytes(w *bitio.Writer, b []byte) error {
	for _, v := range b {
		if err := w.Write(uint32(v), 8); err != nil {
			return err
		}
	}
	return nil
}

// packLength encodes a length field: a 7-bit form when length < 128, a
// 15-bit form otherwise, each preceded by its F flag.
func packLength(w *bitio.Writer, length uint32) error {
	if length < 128 {
		if err := w.Write(0, 1); err != nil { // F
			return err
		}
		return w.Write(length, 7)
	}
	if err := w.Write(1, 1); err != nil { // F
		return err
	}
	return w.Write(length, 15)
}

// unpackLength decodes a length field when eBit is set; returns 0 without
// consuming bits when eBit is 0, matching the last-subheader convention.
func unpackLength(r *bitio.Reader, eBit uint32) (uint32, error) {
	if eBit == 0 {
		return 0, nil
	}
	f, err := r.Read(1)
	if err != nil {
		return 0, err
	}
	if f != 0 {
		return r.Read(15)
	}
	return r.Read(7)
}

// pendingLength records what the header train learned about a subheader
// before the payload train has been walked.
type pendingLength struct {
	lcid       uint8
	length     uint32
	isLast     bool
	isEph      bool
	isMchSched bool
}

// Unpack decodes a PDU whose channel type is already set on p. For UL-SCH
// PDUs carrying an Extended Power Headroom CE, simultaneousPUCCHPUSCH must
// reflect the reporting UE's configured capability.
func (p *MacPdu) Unpack(b []byte, simultaneousPUCCHPUSCH bool) error {
	r := bitio.NewReader(b)

	var pending []pendingLength
	eBit := uint32(1)
	for eBit != 0 {
		if len(pending) >= MaxMacPduSubheaders {
			logger.MacLog.Debugf("unpack: subheader count exceeds %d, rejecting PDU", MaxMacPduSubheaders)
			return ErrInvalidInput
		}
		if err := r.SkipBits(2); err != nil { // R
			return err
		}
		e, err := r.Read(1)
		if err != nil {
			return err
		}
		eBit = e
		lcidVal, err := r.Read(5)
		if err != nil {
			return err
		}
		lcid := uint8(lcidVal)

		pl := pendingLength{lcid: lcid, isLast: eBit == 0}

		switch p.ChanType {
		case ChanDLSCH:
			if !dlschNoLengthLCID(lcid) {
				length, err := unpackLength(r, eBit)
				if err != nil {
					return err
				}
				pl.length = length
			}
		case ChanULSCH:
			if lcid == UlschExtPowerHeadroomReportLCID {
				pl.isEph = true
				if _, err := unpackLength(r, eBit); err != nil {
					return err
				}
			} else if !ulschNoLengthLCID(lcid) {
				length, err := unpackLength(r, eBit)
				if err != nil {
					return err
				}
				pl.length = length
			}
		case ChanMCH:
			length, err := unpackLength(r, eBit)
			if err != nil {
				return err
			}
			if lcid == MchSchedulingInformationLCID {
				pl.isMchSched = true
				pl.length = length / 2
				if length == 0 && !pl.isLast {
					logger.MacLog.Debugf("unpack: zero-length MCH scheduling info mid-train, rejecting PDU")
					return ErrInvalidInput
				}
			} else {
				pl.length = length
			}
		}

		pending = append(pending, pl)
	}

	subheaders := make([]MacSubheader, len(pending))
	for i, pl := range pending {
		payload, err := p.unpackPayload(r, pl, simultaneousPUCCHPUSCH)
		if err != nil {
			return err
		}
		subheaders[i] = MacSubheader{LCID: pl.lcid, Payload: payload}
	}
	p.Subheaders = subheaders

	return nil
}

func (p *MacPdu) unpackPayload(r *bitio.Reader, pl pendingLength, simultaneousPUCCHPUSCH bool) (any, error) {
	switch p.ChanType {
	case ChanDLSCH:
		switch pl.lcid {
		case DlschActivationDeactivationLCID:
			v := &ActivationDeactivation{}
			return v, v.unpack(r)
		case DlschUeContentionResolutionIDLCID:
			v := &UeContentionResolutionID{}
			return v, v.unpack(r)
		case DlschTaCommandLCID:
			v := &TaCommand{}
			return v, v.unpack(r)
		case DlschDrxCommandLCID, DlschPaddingLCID:
			return nil, nil
		default:
			return unpackSduTail(r, pl.length)
		}
	case ChanULSCH:
		switch pl.lcid {
		case UlschExtPowerHeadroomReportLCID:
			v := &ExtendedPowerHeadroomReport{}
			return v, v.Unpack(r, simultaneousPUCCHPUSCH)
		case UlschPowerHeadroomReportLCID:
			v := &PowerHeadroom{}
			return v, v.unpack(r)
		case UlschCRntiLCID:
			v := &CRnti{}
			return v, v.unpack(r)
		case UlschTruncatedBsrLCID:
			v := &TruncatedBsr{}
			return v, v.unpack(r)
		case UlschShortBsrLCID:
			v := &ShortBsr{}
			return v, v.unpack(r)
		case UlschLongBsrLCID:
			v := &LongBsr{}
			return v, v.unpack(r)
		case UlschPaddingLCID:
			return nil, nil
		default:
			return unpackSduTail(r, pl.length)
		}
	default: // ChanMCH
		switch pl.lcid {
		case MchSchedulingInformationLCID:
			nItems := int(pl.length)
			if nItems == 0 && pl.isLast {
				nItems = (r.RemainingBits() / 8) / 2
			}
			v := &McSchedInfo{}
			return v, v.unpack(r, nItems)
		case MchPaddingLCID:
			return nil, nil
		default:
			return unpackSduTail(r, pl.length)
		}
	}
}

// unpackSduTail reads length bytes, or, when length is zero, the remainder
// of the message: the tail-subheader convention for SDU and unrecognized
// LCIDs whose length was either omitted (last subheader) or genuinely
// zero.
func unpackSduTail(r *bitio.Reader, length uint32) ([]byte, error) {
	n := int(length)
	if n == 0 {
		n = r.RemainingBits() / 8
	}
	b := make([]byte, n)
	for i := range b {
		v, err := r.Read(8)
		if err != nil {
			return nil, err
		}
		b[i] = byte(v)
	}
	return b, nil
}
