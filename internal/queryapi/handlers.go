package queryapi

import (
	"net/http"
	"strconv"
)

// YearlyTrend is one (region, year) price aggregate.
type YearlyTrend struct {
	Region       string   `json:"region"`
	Year         int      `json:"year"`
	ListingCount int      `json:"listing_count"`
	AvgPrice     float64  `json:"avg_price"`
	MedianPrice  float64  `json:"median_price"`
	MinPrice     float64  `json:"min_price"`
	MaxPrice     float64  `json:"max_price"`
	PriceStddev  *float64 `json:"price_stddev"`
}

func (s *Server) handleYearlyTrends(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")

	rows, err := s.pool.Query(r.Context(), `
		SELECT
			region,
			EXTRACT(YEAR FROM date)::int AS year,
			COUNT(*)::int AS listing_count,
			AVG(price) AS avg_price,
			PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY price) AS median_price,
			MIN(price) AS min_price,
			MAX(price) AS max_price,
			STDDEV(price) AS price_stddev
		FROM listings
		WHERE ($1 = '' OR region = $1)
		GROUP BY region, EXTRACT(YEAR FROM date)
		ORDER BY region, year`,
		region,
	)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	defer rows.Close()

	trends := []YearlyTrend{}
	for rows.Next() {
		var t YearlyTrend
		if err := rows.Scan(&t.Region, &t.Year, &t.ListingCount, &t.AvgPrice,
			&t.MedianPrice, &t.MinPrice, &t.MaxPrice, &t.PriceStddev); err != nil {
			writeQueryError(w, err)
			return
		}
		trends = append(trends, t)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

// PropertyTypeStats compares categories within a region.
type PropertyTypeStats struct {
	Region       string   `json:"region"`
	PropertyType string   `json:"property_type"`
	Count        int      `json:"count"`
	MinPrice     float64  `json:"min_price"`
	MaxPrice     float64  `json:"max_price"`
	AvgPrice     float64  `json:"avg_price"`
	MedianPrice  float64  `json:"median_price"`
	PricePerSqft *float64 `json:"price_per_sqft"`
}

func (s *Server) handlePropertyTypes(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")

	rows, err := s.pool.Query(r.Context(), `
		SELECT
			region,
			property_type,
			COUNT(*)::int AS count,
			MIN(price) AS min_price,
			MAX(price) AS max_price,
			AVG(price) AS avg_price,
			PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY price) AS median_price,
			AVG(CASE WHEN sqft > 0 THEN price / sqft END) AS price_per_sqft
		FROM listings
		WHERE property_type IN ('apartment', 'independent', 'condo', 'townhouse')
		  AND ($1 = '' OR region = $1)
		GROUP BY region, property_type
		ORDER BY region, count DESC`,
		region,
	)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	defer rows.Close()

	stats := []PropertyTypeStats{}
	for rows.Next() {
		var st PropertyTypeStats
		if err := rows.Scan(&st.Region, &st.PropertyType, &st.Count, &st.MinPrice,
			&st.MaxPrice, &st.AvgPrice, &st.MedianPrice, &st.PricePerSqft); err != nil {
			writeQueryError(w, err)
			return
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// SaleTypeStats is one (region, year, sale_type) aggregate.
type SaleTypeStats struct {
	Region      string  `json:"region"`
	Year        int     `json:"year"`
	SaleType    string  `json:"sale_type"`
	Count       int     `json:"count"`
	AvgPrice    float64 `json:"avg_price"`
	MedianPrice float64 `json:"median_price"`
}

func (s *Server) handleRentVsOwn(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")

	rows, err := s.pool.Query(r.Context(), `
		SELECT
			region,
			EXTRACT(YEAR FROM date)::int AS year,
			sale_type,
			COUNT(*)::int AS count,
			AVG(price) AS avg_price,
			PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY price) AS median_price
		FROM listings
		WHERE ($1 = '' OR region = $1)
		GROUP BY region, EXTRACT(YEAR FROM date), sale_type
		ORDER BY region, year, sale_type`,
		region,
	)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	defer rows.Close()

	stats := []SaleTypeStats{}
	for rows.Next() {
		var st SaleTypeStats
		if err := rows.Scan(&st.Region, &st.Year, &st.SaleType, &st.Count,
			&st.AvgPrice, &st.MedianPrice); err != nil {
			writeQueryError(w, err)
			return
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// OwnershipShare is one (region, year, ownership) share of listings.
type OwnershipShare struct {
	Region     string  `json:"region"`
	Year       int     `json:"year"`
	Ownership  string  `json:"ownership"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

func (s *Server) handleOwnership(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")

	rows, err := s.pool.Query(r.Context(), `
		SELECT
			region,
			EXTRACT(YEAR FROM date)::int AS year,
			ownership,
			COUNT(*)::int AS count,
			ROUND(
				COUNT(*) * 100.0 /
				SUM(COUNT(*)) OVER (PARTITION BY region, EXTRACT(YEAR FROM date)),
				2
			)::float8 AS percentage
		FROM listings
		WHERE ownership != 'unknown'
		  AND ($1 = '' OR region = $1)
		GROUP BY region, EXTRACT(YEAR FROM date), ownership
		ORDER BY region, year, ownership`,
		region,
	)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	defer rows.Close()

	shares := []OwnershipShare{}
	for rows.Next() {
		var sh OwnershipShare
		if err := rows.Scan(&sh.Region, &sh.Year, &sh.Ownership, &sh.Count, &sh.Percentage); err != nil {
			writeQueryError(w, err)
			return
		}
		shares = append(shares, sh)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shares)
}

// MonthlyPoint is the forecast input series: one median price per month.
type MonthlyPoint struct {
	Month       string  `json:"month"`
	MedianPrice float64 `json:"median_price"`
	Count       int     `json:"count"`
}

func (s *Server) handleMonthlySeries(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	limit := parseLimit(r.URL.Query().Get("limit"), 360)

	rows, err := s.pool.Query(r.Context(), `
		SELECT
			TO_CHAR(DATE_TRUNC('month', date), 'YYYY-MM') AS month,
			PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY price) AS median_price,
			COUNT(*)::int AS count
		FROM listings
		WHERE ($1 = '' OR region = $1)
		GROUP BY DATE_TRUNC('month', date)
		ORDER BY month DESC
		LIMIT $2`,
		region, limit,
	)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	defer rows.Close()

	points := []MonthlyPoint{}
	for rows.Next() {
		var p MonthlyPoint
		if err := rows.Scan(&p.Month, &p.MedianPrice, &p.Count); err != nil {
			writeQueryError(w, err)
			return
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// MacroPoint is one macro indicator observation.
type MacroPoint struct {
	Region       string   `json:"region"`
	Date         string   `json:"date"`
	MortgageRate *float64 `json:"mortgage_rate"`
}

func (s *Server) handleLatestMacro(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	limit := parseLimit(r.URL.Query().Get("limit"), 52)

	rows, err := s.pool.Query(r.Context(), `
		SELECT region, TO_CHAR(date, 'YYYY-MM-DD'), mortgage_rate
		FROM macro_indicators
		WHERE ($1 = '' OR region = $1)
		ORDER BY date DESC
		LIMIT $2`,
		region, limit,
	)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	defer rows.Close()

	points := []MacroPoint{}
	for rows.Next() {
		var p MacroPoint
		if err := rows.Scan(&p.Region, &p.Date, &p.MortgageRate); err != nil {
			writeQueryError(w, err)
			return
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

const maxLimit = 5000

// parseLimit clamps the client-supplied limit to (0, maxLimit].
func parseLimit(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}
