// Package records defines the canonical row types shared by every source
// adapter, the validator, and the Postgres loader. All sources are normalized
// into a Listing before anything downstream sees them.
package records

import (
	"strings"
	"time"
)

// Property type vocabulary. Adapters normalize provider labels into these;
// anything unmapped degrades to CategoryOther.
const (
	CategoryIndependent = "independent"
	CategoryCondo       = "condo"
	CategoryTownhouse   = "townhouse"
	CategoryApartment   = "apartment"
	CategoryOther       = "other"
)

// categoryAliases maps lowercased provider labels to the controlled
// vocabulary. Labels that already are vocabulary terms pass through.
var categoryAliases = map[string]string{
	"single family residential": CategoryIndependent,
	"condo/co-op":               CategoryCondo,
	"townhouse":                 CategoryTownhouse,
	"apartment":                 CategoryApartment,
	"multi-family (2-4 unit)":   CategoryApartment,
}

// NormalizeCategory maps a raw provider property-type label to the controlled
// vocabulary. Unrecognized labels map to CategoryOther rather than failing.
func NormalizeCategory(raw string) string {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" {
		return CategoryOther
	}
	switch label {
	case CategoryIndependent, CategoryCondo, CategoryTownhouse, CategoryApartment, CategoryOther:
		return label
	}
	if mapped, ok := categoryAliases[label]; ok {
		return mapped
	}
	return CategoryOther
}

// Listing is the canonical record every source adapter produces. Optional
// numeric fields are pointers so "absent" and "zero" stay distinct all the
// way into the store.
type Listing struct {
	ListingID    string // assigned by identity.Assign, empty until then
	SourceKind   string // which adapter produced this record
	NaturalKey   string // provider's entity id, hashing input for ListingID
	Date         time.Time
	Region       string
	City         string
	PropertyType string
	Price        float64
	Tax          *float64
	SaleType     string
	Ownership    string
	Bedrooms     *int
	Bathrooms    *float64
	Sqft         *int
}

// MacroIndicator is a macro-economic observation (e.g. a mortgage rate),
// keyed by (region, date) instead of a synthetic identifier.
type MacroIndicator struct {
	Region string
	Date   time.Time
	Value  float64
}
