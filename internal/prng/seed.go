package prng

import "unicode/utf16"

// Seed hashes s into a non-negative seed.
//
// Each step computes h = h*31 + c truncated to a signed 32-bit integer, where c
// walks the UTF-16 code units of s. The result is |h|, so math.MinInt32 maps to
// 2147483648 rather than overflowing. Seed("") == 0.
func Seed(s string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// CharCount returns the number of UTF-16 code units in s, the unit Seed hashes
// over. Derivations that offset a seed by a label length use this count.
func CharCount(s string) int {
	return len(utf16.Encode([]rune(s)))
}
