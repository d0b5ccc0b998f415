package store

import (
	"context"
	"fmt"
)

// initSchema creates the tables and indexes if they do not exist. Safe to
// run on every startup.
func (s *Postgres) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			listing_id VARCHAR(32) PRIMARY KEY,
			date DATE NOT NULL,
			region TEXT NOT NULL,
			city TEXT,
			property_type VARCHAR(32),
			price DOUBLE PRECISION NOT NULL,
			tax DOUBLE PRECISION,
			sale_type VARCHAR(32),
			ownership VARCHAR(32),
			bedrooms INTEGER,
			bathrooms DOUBLE PRECISION,
			sqft INTEGER,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS macro_indicators (
			region TEXT NOT NULL,
			date DATE NOT NULL,
			mortgage_rate DOUBLE PRECISION,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (region, date)
		);

		CREATE INDEX IF NOT EXISTS idx_listings_region_date ON listings(region, date);
		CREATE INDEX IF NOT EXISTS idx_listings_property_type ON listings(property_type);
		CREATE INDEX IF NOT EXISTS idx_listings_date ON listings(date);
		CREATE INDEX IF NOT EXISTS idx_macro_indicators_date ON macro_indicators(date);
	`)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}
