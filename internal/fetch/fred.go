package fetch

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// MortgageSeries is the FRED series ingested as the macro indicator.
const MortgageSeries = "MORTGAGE30US"

type fredResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// FRED fetches the mortgage-rate series and writes it as a date,value CSV.
// Without an API key a deterministic sample series is written instead, so
// the pipeline stays runnable offline.
func (f *Fetcher) FRED(ctx context.Context, seriesID string) (string, error) {
	path := filepath.Join(f.RawDataDir, fmt.Sprintf("fred_%s_%s.csv", seriesID, f.stamp()))

	if f.FREDAPIKey == "" {
		log.Warn().Msg("no FRED API key, writing sample series")
		if err := writeSampleFRED(path); err != nil {
			return "", err
		}
		return path, nil
	}

	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("api_key", f.FREDAPIKey)
	q.Set("file_type", "json")
	q.Set("observation_start", "2000-01-01")

	resp, err := f.get(ctx, f.FREDURL+"?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("fred fetch failed: %w", err)
	}
	defer resp.Body.Close()

	var payload fredResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("fred payload decode failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	cw := csv.NewWriter(out)
	if err := cw.Write([]string{"date", "value"}); err != nil {
		return "", err
	}
	for _, obs := range payload.Observations {
		if err := cw.Write([]string{obs.Date, obs.Value}); err != nil {
			return "", err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", err
	}

	log.Info().Str("path", path).Int("observations", len(payload.Observations)).Msg("saved fred snapshot")
	return path, nil
}

// writeSampleFRED emits a plausible monthly mortgage-rate curve for
// 2000-2023. Same input, same output: the series is a pure function of the
// calendar.
func writeSampleFRED(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	cw := csv.NewWriter(out)
	if err := cw.Write([]string{"date", "value"}); err != nil {
		return err
	}
	for year := 2000; year <= 2023; year++ {
		for month := time.January; month <= time.December; month++ {
			// Last day of the month.
			date := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
			rate := 6.5 + float64(year-2000)*0.1 - float64((year-2010)*(year-2010))*0.02
			if rate < 2.5 {
				rate = 2.5
			}
			if rate > 8.0 {
				rate = 8.0
			}
			if err := cw.Write([]string{date.Format("2006-01-02"), fmt.Sprintf("%.2f", rate)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
