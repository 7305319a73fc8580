package utils

import "testing"

func TestParseAmount_AcceptsFormattedStrings(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"20000", "20000"},
		{"20,000", "20000"},
		{"NGN 20,000", "20000"},
		{"NGN -20,000", "-20000"},
		{"  $ 1,234.50  ", "1234.5"},
	}
	for _, tc := range cases {
		d, err := ParseAmount(tc.in)
		if err != nil {
			t.Fatalf("ParseAmount(%q) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("ParseAmount(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
}

func TestParseAmount_RejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "NGN"} {
		if _, err := ParseAmount(in); err == nil {
			t.Fatalf("ParseAmount(%q) expected error, got nil", in)
		}
	}
}

func TestParseAmount_Numbers(t *testing.T) {
	d, err := ParseAmount(float64(9.999999))
	if err != nil {
		t.Fatalf("ParseAmount(float64) error: %v", err)
	}
	if d.String() != "9.999999" {
		t.Fatalf("expected 9.999999, got %s", d.String())
	}
}
