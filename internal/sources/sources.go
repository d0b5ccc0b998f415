// Package sources converts raw provider snapshots into canonical records.
// One adapter per provider; adapters are pure and stateless. A malformed
// snapshot fails the whole source batch with a *FormatError so the pipeline
// can continue with the other sources.
package sources

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/hometrics/market-ingester/internal/records"
)

// Source kinds understood by the pipeline.
const (
	KindZillow = "zillow"
	KindRedfin = "redfin"
	KindFRED   = "fred"
)

// Snapshot file patterns, matching what the fetcher writes.
const (
	ZillowPattern = "zillow_raw_*.csv"
	RedfinPattern = "redfin_raw_*.tsv"
	FREDPattern   = "fred_MORTGAGE30US_*.csv"
)

// FormatError reports a snapshot whose schema could not be understood.
// It fails the source batch as a whole, never individual records.
type FormatError struct {
	Kind   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: malformed snapshot: %s", e.Kind, e.Reason)
}

// ListingSource binds a source kind to its snapshot pattern and parser.
type ListingSource struct {
	Kind    string
	Pattern string
	Parse   func(io.Reader) ([]records.Listing, error)
}

// ListingSources enumerates the listing-producing adapters in the order the
// pipeline runs them. FRED is handled separately since it produces macro
// indicators, not listings.
var ListingSources = []ListingSource{
	{Kind: KindZillow, Pattern: ZillowPattern, Parse: ParseZillow},
	{Kind: KindRedfin, Pattern: RedfinPattern, Parse: ParseRedfin},
}

// ErrNoSnapshot is returned when no raw file matches a source's pattern.
var ErrNoSnapshot = errors.New("no snapshot file found")

// LatestSnapshot returns the lexicographically latest file matching pattern
// in dir. Snapshot names embed the fetch date as YYYYMMDD, so lexicographic
// order is chronological order.
func LatestSnapshot(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("bad snapshot pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", ErrNoSnapshot
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
