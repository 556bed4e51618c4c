// SPDX-License-Identifier: Apache-2.0

package mac

// BsrMaxBufferSize and BsrMinBufferSize are the 64-entry buffer-size lookup
// tables of 36.321 v10.2.0 Table 6.1.3.1-1/-2: index i names the half-open
// byte range (BsrMinBufferSize[i], BsrMaxBufferSize[i]].
var BsrMaxBufferSize = [64]uint32{
	0, 10, 12, 14, 17, 19, 22, 26,
	31, 36, 42, 49, 57, 67, 78, 91,
	107, 125, 146, 171, 200, 234, 274, 321,
	376, 440, 515, 603, 706, 826, 967, 1132,
	1326, 1552, 1817, 2127, 2490, 2915, 3413, 3995,
	4677, 5476, 6411, 7505, 8787, 10287, 12043, 14099,
	16507, 19325, 22624, 26487, 31009, 36304, 42502, 49759,
	58255, 68201, 79864, 93479, 109439, 128125, 150000, 150000,
}

var BsrMinBufferSize = [64]uint32{
	0, 0, 10, 12, 14, 17, 19, 22,
	26, 31, 36, 42, 49, 57, 67, 78,
	91, 107, 125, 146, 171, 200, 234, 274,
	321, 376, 440, 515, 603, 706, 826, 967,
	1132, 1326, 1552, 1817, 2127, 2490, 2915, 3413,
	3995, 4677, 5476, 6411, 7505, 8787, 10287, 12043,
	14099, 16507, 19325, 22624, 26487, 31009, 36304, 42502,
	49759, 58255, 68201, 79864, 93479, 109439, 128125, 150000,
}

// BsrIndex returns the 6-bit buffer-size index whose table range contains
// (minBufferSize, maxBufferSize]. It falls back to 63 when no table entry
// past index 0 matches, the same saturating behavior as the BSR quantizer
// it is grounded on.
func BsrIndex(minBufferSize, maxBufferSize uint32) uint8 {
	var idx uint8
	for i := 0; i < 64; i++ {
		if minBufferSize > BsrMinBufferSize[i] && maxBufferSize <= BsrMaxBufferSize[i] {
			idx = uint8(i)
		}
	}
	if idx == 0 {
		idx = 63
	}
	return idx
}

// BsrRange returns the (min, max] byte range that a 6-bit buffer-size index
// names.
func BsrRange(idx uint8) (min, max uint32) {
	return BsrMinBufferSize[idx], BsrMaxBufferSize[idx]
}
