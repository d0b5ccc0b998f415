package sources

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hometrics/market-ingester/internal/records"
)

func TestParseZillowWideToLong(t *testing.T) {
	csv := strings.Join([]string{
		"RegionID,SizeRank,RegionName,RegionType,StateName,2023-04-30,2023-05-31,2023-06-30",
		"394913,1,Miami,msa,FL,410000.5,412000.0,415250.25",
		"102001,0,United States,country,,350000,351000,352000",
		"394514,2,Tampa,msa,FL,,355000,",
	}, "\n")

	listings, err := ParseZillow(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseZillow: %v", err)
	}

	// 3 from Miami, 1 from Tampa (two empty cells), country row skipped.
	if len(listings) != 4 {
		t.Fatalf("got %d listings, want 4", len(listings))
	}

	miami := listings[:3]
	dates := map[string]float64{}
	for _, l := range miami {
		if l.NaturalKey != "394913" || l.Region != "FL" || l.City != "Miami" {
			t.Errorf("unexpected identity fields: %+v", l)
		}
		if l.PropertyType != records.CategoryCondo || l.SaleType != "sale" || l.Ownership != "unknown" {
			t.Errorf("unexpected defaults: %+v", l)
		}
		dates[l.Date.Format("2006-01-02")] = l.Price
	}
	if len(dates) != 3 {
		t.Errorf("expected 3 distinct periods, got %v", dates)
	}
	if dates["2023-06-30"] != 415250.25 {
		t.Errorf("2023-06-30 price = %v, want 415250.25", dates["2023-06-30"])
	}

	tampa := listings[3]
	if tampa.NaturalKey != "394514" || tampa.Price != 355000 || tampa.Date.Format("2006-01-02") != "2023-05-31" {
		t.Errorf("unexpected Tampa record: %+v", tampa)
	}
}

func TestParseZillowSchemaFailures(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"missing RegionID", "RegionName,StateName,2023-06-30\nMiami,FL,1"},
		{"non-date extra column", "RegionID,RegionName,StateName,bogus\n1,Miami,FL,2"},
		{"no date columns", "RegionID,SizeRank,RegionName,RegionType,StateName\n1,1,Miami,msa,FL"},
		{"empty input", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseZillow(strings.NewReader(tt.csv))
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("got err %v, want *FormatError", err)
			}
			if fe.Kind != KindZillow {
				t.Errorf("error kind = %q, want %q", fe.Kind, KindZillow)
			}
		})
	}
}

func TestParseRedfin(t *testing.T) {
	tsv := strings.Join([]string{
		"period_begin\tperiod_end\tregion\tstate_code\tproperty_type\tmedian_sale_price\thomes_sold",
		"2023-05-01\t2023-05-31\tMiami, FL\tFL\tSingle Family Residential\t550000\t1200",
		"2023-05-01\t2023-05-31\tMiami, FL\tFL\tCondo/Co-op\t380000\t900",
		"2023-05-01\t2023-05-31\tTampa, FL\tFL\tHouseboat Park\t120000\t3",
		"2023-05-01\t2023-05-31\tOrlando, FL\tFL\tTownhouse\t\t40",
		"2023-05-01\tnot-a-date\tOcala, FL\tFL\tTownhouse\t210000\t12",
	}, "\n")

	listings, err := ParseRedfin(strings.NewReader(tsv))
	if err != nil {
		t.Fatalf("ParseRedfin: %v", err)
	}
	if len(listings) != 3 {
		t.Fatalf("got %d listings, want 3 (empty price and bad date skipped)", len(listings))
	}

	if listings[0].PropertyType != records.CategoryIndependent {
		t.Errorf("single family mapped to %q, want %q", listings[0].PropertyType, records.CategoryIndependent)
	}
	if listings[1].PropertyType != records.CategoryCondo {
		t.Errorf("condo/co-op mapped to %q, want %q", listings[1].PropertyType, records.CategoryCondo)
	}
	if listings[2].PropertyType != records.CategoryOther {
		t.Errorf("unknown label mapped to %q, want %q", listings[2].PropertyType, records.CategoryOther)
	}
	if listings[0].NaturalKey != "Miami, FL" || listings[0].Region != "FL" {
		t.Errorf("unexpected keys: %+v", listings[0])
	}
}

func TestParseRedfinMissingColumn(t *testing.T) {
	tsv := "period_end\tregion\tmedian_sale_price\n2023-05-31\tMiami\t100"
	_, err := ParseRedfin(strings.NewReader(tsv))
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("got err %v, want *FormatError", err)
	}
}

func TestParseFRED(t *testing.T) {
	csv := strings.Join([]string{
		"realtime_start,realtime_end,date,value",
		"2023-07-01,2023-07-01,2023-05-04,6.39",
		"2023-07-01,2023-07-01,2023-05-11,.",
		"2023-07-01,2023-07-01,2023-05-18,6.57",
	}, "\n")

	indicators, err := ParseFRED(strings.NewReader(csv), "florida")
	if err != nil {
		t.Fatalf("ParseFRED: %v", err)
	}
	if len(indicators) != 2 {
		t.Fatalf("got %d indicators, want 2 (missing marker skipped)", len(indicators))
	}
	if indicators[0].Region != "florida" || indicators[0].Value != 6.39 {
		t.Errorf("unexpected indicator: %+v", indicators[0])
	}
}

func TestParseFREDMissingColumns(t *testing.T) {
	_, err := ParseFRED(strings.NewReader("date,rate\n2023-05-04,6.39"), "florida")
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("got err %v, want *FormatError", err)
	}
}

func TestLatestSnapshot(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"zillow_raw_20230601.csv",
		"zillow_raw_20230715.csv",
		"zillow_raw_20230702.csv",
		"redfin_raw_20230801.tsv",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := LatestSnapshot(dir, ZillowPattern)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if filepath.Base(got) != "zillow_raw_20230715.csv" {
		t.Errorf("latest = %q, want zillow_raw_20230715.csv", filepath.Base(got))
	}

	if _, err := LatestSnapshot(dir, FREDPattern); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("got err %v, want ErrNoSnapshot", err)
	}
}
