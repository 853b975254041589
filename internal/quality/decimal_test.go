package quality

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseLocaleDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10,03", "10.03"},
		{"1.234,50", "1234.5"},
		{"1.234.567,8", "1234567.8"},
		{"5", "5"},
		{"-0,05", "-0.05"},
		{" 12,5 ", "12.5"},
		{"1.000", "1000"},
	}
	for _, tt := range tests {
		got, err := ParseLocaleDecimal(tt.in)
		if err != nil {
			t.Errorf("ParseLocaleDecimal(%q) error: %v", tt.in, err)
			continue
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParseLocaleDecimal(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseLocaleDecimalErrors(t *testing.T) {
	if _, err := ParseLocaleDecimal("   "); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("empty input: got %v", err)
	}
	for _, in := range []string{"1,2,3", "abc", "12mm", "1-2", ",", "."} {
		if _, err := ParseLocaleDecimal(in); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("ParseLocaleDecimal(%q): expected ErrInvalidValue, got %v", in, err)
		}
	}
}

func TestParseLocaleDecimalRange(t *testing.T) {
	for _, in := range []string{"9.999.999.999,9999", "-9.999.999.999", "0,00001"} {
		if _, err := ParseLocaleDecimal(in); err != nil {
			t.Errorf("ParseLocaleDecimal(%q): %v", in, err)
		}
	}
	for _, in := range []string{"12.345.678.901", "10.000.000.000", "-10000000000", "9.999.999.999,99995"} {
		if _, err := ParseLocaleDecimal(in); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("ParseLocaleDecimal(%q): expected ErrOutOfRange, got %v", in, err)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in     string
		entry  string
		report string
	}{
		{"1234.5", "1234,50", "1.234,50"},
		{"10.03", "10,03", "10,03"},
		{"0", "0,00", "0,00"},
		{"-1234567.891", "-1234567,89", "-1.234.567,89"},
		{"0.005", "0,01", "0,01"},
		{"-0.001", "0,00", "0,00"},
		{"999.999", "1000,00", "1.000,00"},
	}
	for _, tt := range tests {
		d := decimal.RequireFromString(tt.in)
		if got := FormatEntry(d); got != tt.entry {
			t.Errorf("FormatEntry(%s) = %q, want %q", tt.in, got, tt.entry)
		}
		if got := FormatReport(d); got != tt.report {
			t.Errorf("FormatReport(%s) = %q, want %q", tt.in, got, tt.report)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	v := decimal.RequireFromString("1234.5")
	text := FormatReport(v)
	if text != "1.234,50" {
		t.Fatalf("FormatReport = %q", text)
	}
	back, err := ParseLocaleDecimal(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !back.Equal(v) {
		t.Errorf("round trip gave %s, want %s", back, v)
	}
}
