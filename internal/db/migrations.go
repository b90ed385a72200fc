package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`CREATE TABLE IF NOT EXISTS cities (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		company_id UUID NOT NULL,
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_cities_company_id ON cities (company_id);`,
	`CREATE TABLE IF NOT EXISTS trips (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		company_id UUID NOT NULL,
		user_id UUID NOT NULL,
		origin_city_id UUID NOT NULL REFERENCES cities(id),
		destination_city_id UUID NOT NULL REFERENCES cities(id),
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ,
		status VARCHAR(32) NOT NULL DEFAULT 'CREATED',
		conduct VARCHAR(32) NOT NULL DEFAULT 'UNKNOWN',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT chk_trips_status CHECK (status IN ('CREATED', 'IN_PROGRESS', 'COMPLETED', 'CANCELLED')),
		CONSTRAINT chk_trips_conduct CHECK (conduct IN ('NORMAL', 'AGGRESSIVE', 'UNKNOWN')),
		CONSTRAINT chk_trips_dates CHECK (end_date IS NULL OR end_date >= start_date)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_trips_company_start ON trips (company_id, start_date DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_trips_user_start ON trips (user_id, start_date DESC);`,
	`CREATE TABLE IF NOT EXISTS trip_details (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		occurred_at TIMESTAMPTZ NOT NULL,
		type VARCHAR(64) NOT NULL,
		responded BOOLEAN NOT NULL DEFAULT FALSE
	);`,
	`CREATE INDEX IF NOT EXISTS idx_trip_details_trip_id ON trip_details (trip_id, occurred_at);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
