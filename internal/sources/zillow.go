package sources

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/hometrics/market-ingester/internal/records"
)

// Zillow ZHVI snapshots are wide: one row per metro region, identity columns
// first, then one column per month. The adapter pivots each date column into
// its own listing (wide-to-long reshape).

var zillowIDColumns = map[string]bool{
	"RegionID":   true,
	"SizeRank":   true,
	"RegionName": true,
	"RegionType": true,
	"StateName":  true,
}

// ParseZillow reads a ZHVI wide CSV and emits one listing per (region, month)
// pair with a non-empty price. ZHVI tracks home values at metro level, so
// every listing is priced as the metro aggregate with the region id as
// natural key.
func ParseZillow(r io.Reader) ([]records.Listing, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		return nil, &FormatError{Kind: KindZillow, Reason: fmt.Sprintf("cannot read header: %v", err)}
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"RegionID", "RegionName", "StateName"} {
		if _, ok := cols[required]; !ok {
			return nil, &FormatError{Kind: KindZillow, Reason: "missing column " + required}
		}
	}

	// Every non-identity column must be a date column.
	type dateCol struct {
		idx  int
		date time.Time
	}
	var dateCols []dateCol
	for i, name := range header {
		if zillowIDColumns[name] {
			continue
		}
		d, err := time.Parse("2006-01-02", name)
		if err != nil {
			return nil, &FormatError{Kind: KindZillow, Reason: "unexpected column " + name}
		}
		dateCols = append(dateCols, dateCol{idx: i, date: d})
	}
	if len(dateCols) == 0 {
		return nil, &FormatError{Kind: KindZillow, Reason: "no date columns"}
	}

	var listings []records.Listing
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &FormatError{Kind: KindZillow, Reason: fmt.Sprintf("bad row: %v", err)}
		}

		regionID := row[cols["RegionID"]]
		region := row[cols["StateName"]]
		city := row[cols["RegionName"]]
		if region == "" {
			// The country-level aggregate row has no state; canonical
			// records require a region.
			continue
		}

		for _, dc := range dateCols {
			raw := row[dc.idx]
			if raw == "" {
				continue
			}
			price, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			listings = append(listings, records.Listing{
				SourceKind:   KindZillow,
				NaturalKey:   regionID,
				Date:         dc.date,
				Region:       region,
				City:         city,
				PropertyType: records.CategoryCondo,
				Price:        price,
				SaleType:     "sale",
				Ownership:    "unknown",
			})
		}
	}

	return listings, nil
}
