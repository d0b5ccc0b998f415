// Package fetch downloads raw provider snapshots and writes them as dated
// flat files for the pipeline to pick up. Fetching is a thin upstream
// collaborator: no retry or backoff policy, a failed source is just logged
// and skipped.
package fetch

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Public dataset endpoints. Overridable for tests.
const (
	DefaultZillowURL = "https://files.zillowstatic.com/research/public_csvs/zhvi/Metro_zhvi_uc_sfrcondo_tier_0.33_0.67_sm_sa_month.csv"
	DefaultRedfinURL = "https://redfin-public-data.s3.us-west-2.amazonaws.com/redfin_market_tracker/state_market_tracker.tsv000.gz"
	DefaultFREDURL   = "https://api.stlouisfed.org/fred/series/observations"
)

// Fetcher downloads raw snapshots into RawDataDir.
type Fetcher struct {
	Client     *http.Client
	RawDataDir string
	State      string // state code used to filter Redfin rows
	FREDAPIKey string

	ZillowURL string
	RedfinURL string
	FREDURL   string

	// now is injectable for deterministic file names in tests.
	now func() time.Time
}

// New creates a fetcher with the default endpoints.
func New(rawDataDir, state, fredAPIKey string) *Fetcher {
	return &Fetcher{
		Client:     &http.Client{Timeout: 2 * time.Minute},
		RawDataDir: rawDataDir,
		State:      state,
		FREDAPIKey: fredAPIKey,
		ZillowURL:  DefaultZillowURL,
		RedfinURL:  DefaultRedfinURL,
		FREDURL:    DefaultFREDURL,
		now:        time.Now,
	}
}

func (f *Fetcher) stamp() string {
	return f.now().Format("20060102")
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp, nil
}

// Zillow downloads the ZHVI wide CSV as-is.
func (f *Fetcher) Zillow(ctx context.Context) (string, error) {
	resp, err := f.get(ctx, f.ZillowURL)
	if err != nil {
		return "", fmt.Errorf("zillow fetch failed: %w", err)
	}
	defer resp.Body.Close()

	path := filepath.Join(f.RawDataDir, fmt.Sprintf("zillow_raw_%s.csv", f.stamp()))
	if err := writeFile(path, resp.Body); err != nil {
		return "", err
	}
	log.Info().Str("path", path).Msg("saved zillow snapshot")
	return path, nil
}

// Redfin downloads the gzipped market-tracker TSV and keeps only rows for
// the configured state.
func (f *Fetcher) Redfin(ctx context.Context) (string, error) {
	resp, err := f.get(ctx, f.RedfinURL)
	if err != nil {
		return "", fmt.Errorf("redfin fetch failed: %w", err)
	}
	defer resp.Body.Close()

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("redfin payload is not gzip: %w", err)
	}
	defer gz.Close()

	path := filepath.Join(f.RawDataDir, fmt.Sprintf("redfin_raw_%s.tsv", f.stamp()))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	kept, err := filterTSVByState(gz, out, f.State)
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("redfin filter failed: %w", err)
	}
	log.Info().Str("path", path).Int("rows", kept).Str("state", f.State).Msg("saved redfin snapshot")
	return path, nil
}

// filterTSVByState copies header plus rows whose state_code matches.
func filterTSVByState(r io.Reader, w io.Writer, state string) (int, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true

	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("cannot read header: %w", err)
	}
	stateIdx := -1
	for i, name := range header {
		if name == "state_code" {
			stateIdx = i
			break
		}
	}
	if stateIdx < 0 {
		return 0, fmt.Errorf("no state_code column")
	}
	if err := cw.Write(header); err != nil {
		return 0, err
	}

	kept := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if row[stateIdx] != state {
			continue
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
		kept++
	}
	cw.Flush()
	return kept, cw.Error()
}

func writeFile(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}
