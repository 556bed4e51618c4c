// SPDX-License-Identifier: Apache-2.0

// Package mac implements the 3GPP TS 36.321 v10.2.0 MAC PDU codec: DL-SCH,
// UL-SCH, and MCH multiplexing PDUs with their control elements, and Random
// Access Response PDUs. Every function here reads or writes a bitio cursor
// and returns an error, with no shared state; the only I/O is the debug log
// line MacPdu.Unpack writes when it rejects a PDU.
package mac

import "errors"

// ErrInvalidInput covers nil/out-of-range arguments: an over-capacity
// subheader or item count, an unsupported RAR header type, or a mid-train
// MCH Scheduling Information subheader with a zero length.
var ErrInvalidInput = errors.New("mac: invalid input")

// ChanType selects the LCID namespace and control-element interpretation
// that applies to a MacPdu's subheaders.
type ChanType int

const (
	ChanDLSCH ChanType = iota
	ChanULSCH
	ChanMCH
)

// LCID values for DL-SCH, Table 6.2.1-1a (36.321 v10.2.0, Release 10
// additions for carrier aggregation).
const (
	DlschActivationDeactivationLCID    = 27
	DlschUeContentionResolutionIDLCID  = 28
	DlschTaCommandLCID                 = 29
	DlschDrxCommandLCID                = 30
	DlschPaddingLCID                   = 31
)

// LCID values for UL-SCH, Table 6.2.1-2 (36.321 v10.2.0, Release 10
// additions for carrier aggregation).
const (
	UlschExtPowerHeadroomReportLCID = 25
	UlschPowerHeadroomReportLCID    = 26
	UlschCRntiLCID                  = 27
	UlschTruncatedBsrLCID           = 28
	UlschShortBsrLCID               = 29
	UlschLongBsrLCID                = 30
	UlschPaddingLCID                = 31
)

// LCID values for MCH.
const (
	MchSchedulingInformationLCID = 30
	MchPaddingLCID               = 31
)

// Implementation bounds. 36.321 does not name a hard cap for these; the
// values below are this implementation's chosen budget, generous for any
// realistic eNodeB scheduler decision.
const (
	MaxMsgBytes           = 10240
	MaxMacPduSubheaders   = 32
	MchSchedInfoMaxNItems = 16
)
