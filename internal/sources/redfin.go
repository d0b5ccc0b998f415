package sources

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/hometrics/market-ingester/internal/records"
)

// Redfin market-tracker snapshots are already long: one row per
// (region, period, property type), tab-separated. The adapter only renames
// fields and normalizes the property-type label.

// ParseRedfin reads a market-tracker TSV and maps each row to a listing.
// Rows without a parsable period or price are skipped; a missing required
// column fails the batch.
func ParseRedfin(r io.Reader) ([]records.Listing, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, &FormatError{Kind: KindRedfin, Reason: fmt.Sprintf("cannot read header: %v", err)}
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"period_end", "region", "state_code", "median_sale_price", "property_type"} {
		if _, ok := cols[required]; !ok {
			return nil, &FormatError{Kind: KindRedfin, Reason: "missing column " + required}
		}
	}

	var listings []records.Listing
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &FormatError{Kind: KindRedfin, Reason: fmt.Sprintf("bad row: %v", err)}
		}

		date, err := time.Parse("2006-01-02", row[cols["period_end"]])
		if err != nil {
			continue
		}
		price, err := strconv.ParseFloat(row[cols["median_sale_price"]], 64)
		if err != nil {
			continue
		}
		region := row[cols["state_code"]]
		city := row[cols["region"]]
		if region == "" {
			continue
		}

		listings = append(listings, records.Listing{
			SourceKind:   KindRedfin,
			NaturalKey:   city,
			Date:         date,
			Region:       region,
			City:         city,
			PropertyType: records.NormalizeCategory(row[cols["property_type"]]),
			Price:        price,
			SaleType:     "sale",
			Ownership:    "unknown",
		})
	}

	return listings, nil
}
