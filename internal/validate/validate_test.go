package validate

import (
	"testing"
	"time"

	"github.com/hometrics/market-ingester/internal/records"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func listing(price float64) records.Listing {
	return records.Listing{
		SourceKind: "redfin",
		NaturalKey: "Miami",
		Date:       time.Date(2023, 5, 31, 0, 0, 0, 0, time.UTC),
		Region:     "FL",
		Price:      price,
	}
}

func TestPriceBoundary(t *testing.T) {
	tests := []struct {
		name    string
		price   float64
		kept    bool
	}{
		{"zero price kept", 0, true},
		{"upper bound inclusive", 100_000_000, true},
		{"just above upper bound dropped", 100_000_001, false},
		{"negative dropped", -1, false},
		{"typical price kept", 425_000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, stats := Listings([]records.Listing{listing(tt.price)})
			if kept := len(valid) == 1; kept != tt.kept {
				t.Errorf("price %v: kept=%v, want %v", tt.price, kept, tt.kept)
			}
			wantDropped := 0
			if !tt.kept {
				wantDropped = 1
			}
			if stats.Dropped != wantDropped {
				t.Errorf("Dropped = %d, want %d", stats.Dropped, wantDropped)
			}
		})
	}
}

func TestSoftRulesNullFieldNotRecord(t *testing.T) {
	l := listing(300_000)
	l.Bedrooms = intPtr(21)
	l.Bathrooms = floatPtr(3)
	l.Sqft = intPtr(50)

	valid, stats := Listings([]records.Listing{l})
	if len(valid) != 1 {
		t.Fatalf("record dropped, want kept: %+v", stats)
	}
	got := valid[0]
	if got.Bedrooms != nil {
		t.Errorf("bedrooms = %v, want nulled", *got.Bedrooms)
	}
	if got.Sqft != nil {
		t.Errorf("sqft = %v, want nulled", *got.Sqft)
	}
	if got.Bathrooms == nil || *got.Bathrooms != 3 {
		t.Error("in-range bathrooms should be untouched")
	}
	if stats.FieldsNulled != 2 {
		t.Errorf("FieldsNulled = %d, want 2", stats.FieldsNulled)
	}
	if stats.Dropped != 0 {
		t.Errorf("Dropped = %d, want 0", stats.Dropped)
	}
}

func TestNilOptionalFieldsPass(t *testing.T) {
	valid, stats := Listings([]records.Listing{listing(500_000)})
	if len(valid) != 1 || stats.FieldsNulled != 0 || stats.Dropped != 0 {
		t.Errorf("nil optionals should validate cleanly, got %+v", stats)
	}
}

func TestInputSliceUntouched(t *testing.T) {
	l := listing(300_000)
	l.Bedrooms = intPtr(30)
	in := []records.Listing{l}

	Listings(in)
	if in[0].Bedrooms == nil {
		t.Error("validation mutated the caller's slice")
	}
}
