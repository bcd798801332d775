package jsstring

import "testing"

func TestLengthCountsUTF16CodeUnits(t *testing.T) {
	tests := []struct {
		s    string
		want int
	}{
		{"", 0},
		{"abc", 3},
		{"héllo", 5},
		{"a\U0001F600", 3}, // astral plane character is a surrogate pair
	}
	for _, tt := range tests {
		if got := Length(tt.s); got != tt.want {
			t.Errorf("Length(%q) = %d, want %d", tt.s, got, tt.want)
		}
	}
}

func TestCharAtReturnsCodeUnits(t *testing.T) {
	s := "a\U0001F600b"
	if got := CharAt(s, 0); got != "a" {
		t.Errorf("CharAt(0) = %q, want \"a\"", got)
	}
	if got := CharAt(s, 3); got != "b" {
		t.Errorf("CharAt(3) = %q, want \"b\"", got)
	}
	if got := CharAt(s, 9); got != "" {
		t.Errorf("CharAt(out of range) = %q, want \"\"", got)
	}
}

func TestCodePointAtJoinsSurrogatePairs(t *testing.T) {
	s := "a\U0001F600"
	cp, ok := CodePointAt(s, 1)
	if !ok || cp != 0x1F600 {
		t.Errorf("CodePointAt(1) = %#x %v, want 0x1F600 true", cp, ok)
	}
	if _, ok := CodePointAt(s, 5); ok {
		t.Error("CodePointAt past the end should report out of range")
	}
}

func TestSliceUsesUTF16Indices(t *testing.T) {
	s := "\U0001F600xyz"
	if got := Slice(s, 2, 4); got != "xy" {
		t.Errorf("Slice(2, 4) = %q, want \"xy\"", got)
	}
	if got := Slice(s, 3, 2); got != "" {
		t.Errorf("Slice with start >= end = %q, want \"\"", got)
	}
}

func TestRoundTripUTF16(t *testing.T) {
	for _, s := range []string{"", "plain", "héllo wörld", "mixed \U0001F600 astral"} {
		if got := FromUTF16(ToUTF16(s)); got != s {
			t.Errorf("round trip of %q = %q", s, got)
		}
	}
}

func TestNormalizeForms(t *testing.T) {
	// U+00E9 (precomposed) vs U+0065 U+0301 (decomposed).
	precomposed := "é"
	decomposed := "é"
	if Normalize(decomposed, NFC) != precomposed {
		t.Error("NFC should compose e + combining acute")
	}
	if Normalize(precomposed, NFD) != decomposed {
		t.Error("NFD should decompose é")
	}
}

func TestLocaleCompareOrdersStrings(t *testing.T) {
	if got := LocaleCompare("a", "b", "en"); got >= 0 {
		t.Errorf("LocaleCompare(a, b) = %d, want < 0", got)
	}
	if got := LocaleCompare("b", "a", "en"); got <= 0 {
		t.Errorf("LocaleCompare(b, a) = %d, want > 0", got)
	}
	if got := LocaleCompare("same", "same", "definitely-not-a-locale"); got != 0 {
		t.Errorf("LocaleCompare(same, same) = %d, want 0 even for a bad locale tag", got)
	}
}
