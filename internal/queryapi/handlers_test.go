package queryapi

import "testing"

func TestParseLimit(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		def      int
		expected int
	}{
		{"empty uses default", "", 100, 100},
		{"valid value", "25", 100, 25},
		{"zero uses default", "0", 100, 100},
		{"negative uses default", "-5", 100, 100},
		{"garbage uses default", "abc", 100, 100},
		{"clamped to max", "999999", 100, maxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLimit(tt.raw, tt.def); got != tt.expected {
				t.Errorf("parseLimit(%q, %d) = %d, want %d", tt.raw, tt.def, got, tt.expected)
			}
		})
	}
}
