package money

import "testing"

func TestParseDollars(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Cents
		wantErr bool
	}{
		{name: "plain dollars", input: "12.50", want: 1250},
		{name: "negative", input: "-12.50", want: -1250},
		{name: "currency symbol and commas", input: "$1,250.50", want: 125050},
		{name: "whole dollars", input: "40", want: 4000},
		{name: "trailing text", input: "25.00 USD", want: 2500},
		{name: "single cent rounding", input: "0.005", want: 1},
		{name: "empty", input: "", wantErr: true},
		{name: "no digits", input: "abc", wantErr: true},
		{name: "bare minus", input: "-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDollars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDollars(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDollars(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDollars(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		cents Cents
		want  string
	}{
		{1250, "$12.50"},
		{-1250, "-$12.50"},
		{0, "$0.00"},
		{5, "$0.05"},
		{100000, "$1000.00"},
	}
	for _, tt := range tests {
		if got := Format(tt.cents); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestFormatWithSign(t *testing.T) {
	tests := []struct {
		cents Cents
		want  string
	}{
		{1250, "+$12.50"},
		{-1250, "-$12.50"},
		{0, "$0.00"},
	}
	for _, tt := range tests {
		if got := FormatWithSign(tt.cents); got != tt.want {
			t.Errorf("FormatWithSign(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"-12.50", "12.50", "0.00"} {
		cents, err := ParseDollars(s)
		if err != nil {
			t.Fatalf("ParseDollars(%q) error: %v", s, err)
		}
		back, err := ParseDollars(Format(cents))
		if err != nil {
			t.Fatalf("re-parse error: %v", err)
		}
		if back != cents {
			t.Errorf("round trip for %q: %d != %d", s, back, cents)
		}
	}
}
