package sources

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hometrics/market-ingester/internal/records"
)

// ParseFRED reads a FRED observation CSV (date,value columns, extra columns
// ignored) and emits one macro indicator per observation for the given
// region. FRED marks missing observations with "." — those are skipped.
func ParseFRED(r io.Reader, region string) ([]records.MacroIndicator, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, &FormatError{Kind: KindFRED, Reason: fmt.Sprintf("cannot read header: %v", err)}
	}

	dateIdx, valueIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			dateIdx = i
		case "value":
			valueIdx = i
		}
	}
	if dateIdx < 0 || valueIdx < 0 {
		return nil, &FormatError{Kind: KindFRED, Reason: "missing date/value columns"}
	}

	var indicators []records.MacroIndicator
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &FormatError{Kind: KindFRED, Reason: fmt.Sprintf("bad row: %v", err)}
		}

		raw := strings.TrimSpace(row[valueIdx])
		if raw == "" || raw == "." {
			continue
		}
		date, err := time.Parse("2006-01-02", row[dateIdx])
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}

		indicators = append(indicators, records.MacroIndicator{
			Region: region,
			Date:   date,
			Value:  value,
		})
	}

	return indicators, nil
}
