// Package jsstring bridges Go's UTF-8 strings and JavaScript's UTF-16
// code-unit model (string length, charAt, codePointAt all count UTF-16
// code units, not bytes or runes). Normalization and locale-aware
// comparison ride golang.org/x/text.
package jsstring

import (
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// ToUTF16 converts a Go (UTF-8) string to its UTF-16 code-unit sequence, the
// representation 's string equality and indexing operations are defined
// over.
func ToUTF16(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// FromUTF16 converts a UTF-16 code-unit sequence back to a Go string,
// replacing unpaired surrogates with the replacement character the way a
// host boundary (e.g. console output) must.
func FromUTF16(units []uint16) string {
	return string(utf16.Decode(units))
}

// Length returns the UTF-16 code-unit length of s, i.e. what JS's
// `.length` reports on a string.
func Length(s string) int {
	return len(ToUTF16(s))
}

// CharAt returns the single UTF-16 code unit at index i as a one-unit
// string (U+FFFD if i falls on one half of a surrogate pair, since
// FromUTF16 replaces a lone surrogate), or "" if
// out of range. Mirrors String.prototype.charAt.
func CharAt(s string, i int) string {
	units := ToUTF16(s)
	if i < 0 || i >= len(units) {
		return ""
	}
	return FromUTF16(units[i : i+1])
}

// CodePointAt returns the Unicode code point starting at UTF-16 index i,
// combining a surrogate pair when present, and whether i was in range.
func CodePointAt(s string, i int) (rune, bool) {
	units := ToUTF16(s)
	if i < 0 || i >= len(units) {
		return 0, false
	}
	r1 := units[i]
	if utf16.IsSurrogate(rune(r1)) && i+1 < len(units) {
		r := utf16.DecodeRune(rune(r1), rune(units[i+1]))
		if r != utf8.RuneError {
			return r, true
		}
	}
	return rune(r1), true
}

// Slice returns the substring spanning UTF-16 code units [start, end).
func Slice(s string, start, end int) string {
	units := ToUTF16(s)
	if start < 0 {
		start = 0
	}
	if end > len(units) {
		end = len(units)
	}
	if start >= end {
		return ""
	}
	return FromUTF16(units[start:end])
}

// NormalizeForm selects one of the four Unicode normalization forms
// exposed by String.prototype.normalize.
type NormalizeForm int

const (
	NFC NormalizeForm = iota
	NFD
	NFKC
	NFKD
)

// Normalize implements String.prototype.normalize(form).
func Normalize(s string, form NormalizeForm) string {
	var f norm.Form
	switch form {
	case NFD:
		f = norm.NFD
	case NFKC:
		f = norm.NFKC
	case NFKD:
		f = norm.NFKD
	default:
		f = norm.NFC
	}
	return f.String(s)
}

// LocaleCompare implements String.prototype.localeCompare for a BCP-47
// locale tag, returning -1, 0, or 1. An unparsable tag falls back to the
// root collation the same way golang.org/x/text/collate does for an
// unsupported language.
func LocaleCompare(a, b, locale string) int {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	c := collate.New(tag)
	return c.CompareString(a, b)
}
