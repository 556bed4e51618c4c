// SPDX-License-Identifier: Apache-2.0

package mac

import "github.com/openlte-go/fdd-enb/bitio"

func newTestWriter() *bitio.Writer {
	return bitio.NewWriter(32)
}

func newTestReader(w *bitio.Writer) *bitio.Reader {
	return bitio.NewBitReader(w.Bytes(), w.BitLen())
}
