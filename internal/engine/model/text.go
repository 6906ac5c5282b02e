package model

import "unicode/utf8"

// ObjectReplacement stands in for an InlineNode in GetBlockText output so
// that string offsets line up with block offsets.
const ObjectReplacement = '\uFFFC'

// UTF16Len returns the length of s in UTF-16 code units.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

// UTF16ToByteOffset converts a UTF-16 offset into a byte index into s.
// An offset that falls inside a surrogate pair is floored to the start of
// that rune. Offsets past the end return len(s).
func UTF16ToByteOffset(s string, offset int) int {
	if offset <= 0 {
		return 0
	}
	units := 0
	for i, r := range s {
		if units >= offset {
			return i
		}
		w := runeUnits(r)
		if units+w > offset {
			return i
		}
		units += w
	}
	return len(s)
}

// ByteToUTF16Offset converts a byte index into s to a UTF-16 offset.
func ByteToUTF16Offset(s string, byteIdx int) int {
	if byteIdx > len(s) {
		byteIdx = len(s)
	}
	return UTF16Len(s[:byteIdx])
}

// SnapUTF16 floors a UTF-16 offset to the nearest code point boundary of s.
func SnapUTF16(s string, offset int) int {
	return ByteToUTF16Offset(s, UTF16ToByteOffset(s, offset))
}

// SliceUTF16 returns s[from:to] with bounds given in UTF-16 units.
func SliceUTF16(s string, from, to int) string {
	if to <= from {
		return ""
	}
	return s[UTF16ToByteOffset(s, from):UTF16ToByteOffset(s, to)]
}

func runeUnits(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}
