package records

import (
	"testing"
	"time"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"redfin single family", "Single Family Residential", CategoryIndependent},
		{"redfin condo co-op", "condo/co-op", CategoryCondo},
		{"townhouse passthrough", "Townhouse", CategoryTownhouse},
		{"multi family", "Multi-Family (2-4 Unit)", CategoryApartment},
		{"already canonical", "independent", CategoryIndependent},
		{"unknown label", "houseboat", CategoryOther},
		{"empty label", "", CategoryOther},
		{"whitespace only", "   ", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCategory(tt.raw); got != tt.expected {
				t.Errorf("NormalizeCategory(%q) = %q, want %q", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestAssignIDDeterminism(t *testing.T) {
	date := time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC)

	base := Listing{SourceKind: "zillow", NaturalKey: "394913", Date: date, Price: 450000}

	a := base
	b := base
	AssignID(&a)
	AssignID(&b)

	if a.ListingID == "" {
		t.Fatal("AssignID left ListingID empty")
	}
	if len(a.ListingID) != idLength {
		t.Errorf("ListingID length = %d, want %d", len(a.ListingID), idLength)
	}
	if a.ListingID != b.ListingID {
		t.Errorf("same input produced different ids: %q vs %q", a.ListingID, b.ListingID)
	}

	// Unrelated fields must not affect the id.
	c := base
	c.Price = 999999
	c.City = "Tampa"
	AssignID(&c)
	if c.ListingID != a.ListingID {
		t.Errorf("price/city change altered id: %q vs %q", c.ListingID, a.ListingID)
	}

	// Key fields must affect the id.
	d := base
	d.NaturalKey = "394914"
	AssignID(&d)
	if d.ListingID == a.ListingID {
		t.Error("natural key change did not alter id")
	}

	e := base
	e.Date = date.AddDate(0, 1, 0)
	AssignID(&e)
	if e.ListingID == a.ListingID {
		t.Error("date change did not alter id")
	}

	f := base
	f.SourceKind = "redfin"
	AssignID(&f)
	if f.ListingID == a.ListingID {
		t.Error("source kind change did not alter id")
	}
}
