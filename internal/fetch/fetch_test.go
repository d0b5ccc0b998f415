package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2023, 8, 15, 12, 0, 0, 0, time.UTC)
}

func TestFilterTSVByState(t *testing.T) {
	in := strings.Join([]string{
		"period_end\tregion\tstate_code\tmedian_sale_price",
		"2023-05-31\tMiami, FL\tFL\t500000",
		"2023-05-31\tAustin, TX\tTX\t450000",
		"2023-05-31\tTampa, FL\tFL\t300000",
	}, "\n")

	var out bytes.Buffer
	kept, err := filterTSVByState(strings.NewReader(in), &out, "FL")
	if err != nil {
		t.Fatalf("filterTSVByState: %v", err)
	}
	if kept != 2 {
		t.Errorf("kept = %d, want 2", kept)
	}
	if strings.Contains(out.String(), "Austin") {
		t.Error("TX row leaked through the filter")
	}
	if !strings.HasPrefix(out.String(), "period_end\tregion\tstate_code") {
		t.Error("header missing from output")
	}
}

func TestFilterTSVByStateMissingColumn(t *testing.T) {
	var out bytes.Buffer
	_, err := filterTSVByState(strings.NewReader("a\tb\n1\t2"), &out, "FL")
	if err == nil {
		t.Fatal("expected error for missing state_code column")
	}
}

func TestRedfinFetchWritesFilteredSnapshot(t *testing.T) {
	payload := strings.Join([]string{
		"period_end\tregion\tstate_code\tmedian_sale_price",
		"2023-05-31\tMiami, FL\tFL\t500000",
		"2023-05-31\tAustin, TX\tTX\t450000",
	}, "\n")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gz := gzip.NewWriter(w)
		gz.Write([]byte(payload))
		gz.Close()
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := New(dir, "FL", "")
	f.RedfinURL = srv.URL
	f.now = fixedClock

	path, err := f.Redfin(context.Background())
	if err != nil {
		t.Fatalf("Redfin: %v", err)
	}
	if filepath.Base(path) != "redfin_raw_20230815.tsv" {
		t.Errorf("snapshot name = %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "Austin") {
		t.Error("unfiltered row written to snapshot")
	}
}

func TestFREDSampleSeriesIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	f := New(dir, "FL", "") // no API key
	f.now = fixedClock

	pathA, err := f.FRED(context.Background(), MortgageSeries)
	if err != nil {
		t.Fatalf("FRED: %v", err)
	}
	a, err := os.ReadFile(pathA)
	if err != nil {
		t.Fatal(err)
	}

	os.Remove(pathA)
	pathB, err := f.FRED(context.Background(), MortgageSeries)
	if err != nil {
		t.Fatalf("FRED second run: %v", err)
	}
	b, err := os.ReadFile(pathB)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(a, b) {
		t.Error("sample series differs between runs")
	}
	if !strings.HasPrefix(string(a), "date,value\n") {
		t.Error("sample series missing date,value header")
	}
	if lines := strings.Count(string(a), "\n"); lines != 24*12+1 {
		t.Errorf("sample series has %d lines, want %d", lines, 24*12+1)
	}
}

func TestFREDAPIPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("series_id") != MortgageSeries {
			t.Errorf("series_id = %q", r.URL.Query().Get("series_id"))
		}
		w.Write([]byte(`{"observations":[
			{"date":"2023-05-04","value":"6.39"},
			{"date":"2023-05-11","value":"."}
		]}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := New(dir, "FL", "test-key")
	f.FREDURL = srv.URL
	f.now = fixedClock

	path, err := f.FRED(context.Background(), MortgageSeries)
	if err != nil {
		t.Fatalf("FRED: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "date,value\n2023-05-04,6.39\n2023-05-11,.\n"
	if string(data) != want {
		t.Errorf("snapshot = %q, want %q", string(data), want)
	}
}
