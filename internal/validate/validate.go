// Package validate applies domain range rules to canonical listings. Rules
// are declarative: each entry names a field, its inclusive bounds, and
// whether a violation drops the record (hard) or nulls the field (soft).
package validate

import (
	"github.com/hometrics/market-ingester/internal/records"
)

// rule binds an inclusive [min, max] range to one listing field. Hard rules
// reject the whole record; soft rules clear just the offending field.
type rule struct {
	field string
	min   float64
	max   float64
	hard  bool
	value func(*records.Listing) (float64, bool)
	clear func(*records.Listing)
}

var rules = []rule{
	{
		field: "price", min: 0, max: 100_000_000, hard: true,
		value: func(l *records.Listing) (float64, bool) { return l.Price, true },
	},
	{
		field: "sqft", min: 100, max: 50_000,
		value: func(l *records.Listing) (float64, bool) {
			if l.Sqft == nil {
				return 0, false
			}
			return float64(*l.Sqft), true
		},
		clear: func(l *records.Listing) { l.Sqft = nil },
	},
	{
		field: "bedrooms", min: 0, max: 20,
		value: func(l *records.Listing) (float64, bool) {
			if l.Bedrooms == nil {
				return 0, false
			}
			return float64(*l.Bedrooms), true
		},
		clear: func(l *records.Listing) { l.Bedrooms = nil },
	},
	{
		field: "bathrooms", min: 0, max: 15,
		value: func(l *records.Listing) (float64, bool) {
			if l.Bathrooms == nil {
				return 0, false
			}
			return *l.Bathrooms, true
		},
		clear: func(l *records.Listing) { l.Bathrooms = nil },
	},
}

// Stats summarizes one validation pass. Individual violations are not
// enumerated at normal verbosity; callers log these two counts.
type Stats struct {
	Dropped      int
	FieldsNulled int
}

// Listings checks every record against the rule table. Records violating a
// hard rule are removed; soft violations keep the record with the offending
// field nulled. The input slice is not modified.
func Listings(in []records.Listing) ([]records.Listing, Stats) {
	var stats Stats
	out := make([]records.Listing, 0, len(in))

	for i := range in {
		l := in[i]
		keep := true
		for _, r := range rules {
			v, present := r.value(&l)
			if !present || (v >= r.min && v <= r.max) {
				continue
			}
			if r.hard {
				keep = false
				break
			}
			r.clear(&l)
			stats.FieldsNulled++
		}
		if keep {
			out = append(out, l)
		} else {
			stats.Dropped++
		}
	}

	return out, stats
}
