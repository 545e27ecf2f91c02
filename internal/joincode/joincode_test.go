package joincode

import "testing"

func TestNew(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := New()
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		if !Valid(code) {
			t.Fatalf("New() produced invalid code %q", code)
		}
		seen[code] = true
	}
	// 100 draws from a 36^6 space should essentially never collide down
	// to a handful of distinct values.
	if len(seen) < 90 {
		t.Errorf("suspiciously many duplicate codes: %d distinct of 100", len(seen))
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"ABC123", true},
		{"000000", true},
		{"ZZZZZZ", true},
		{"abc123", false},
		{"ABC12", false},
		{"ABC1234", false},
		{"ABC-12", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Valid(tt.code); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
