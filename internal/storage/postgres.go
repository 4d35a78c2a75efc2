// Package storage opens the PostgreSQL connection and owns the schema
// bootstrap. Tables are created on startup so a fresh database is usable
// without a separate migration step.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation. Stores use it to map duplicate inserts to sentinel.ErrConflict.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// EnsureSchema creates all tables if they do not exist. Order matters: child
// tables reference their parents.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS villages (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		district TEXT NOT NULL,
		state TEXT NOT NULL,
		pincode TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (name, district)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL UNIQUE,
		email TEXT UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		ward_number INT NOT NULL DEFAULT 0,
		village_id UUID NOT NULL REFERENCES villages(id),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS budgets (
		id UUID PRIMARY KEY,
		village_id UUID NOT NULL REFERENCES villages(id),
		financial_year TEXT NOT NULL,
		total_allocated DOUBLE PRECISION NOT NULL,
		total_spent DOUBLE PRECISION NOT NULL DEFAULT 0,
		description TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (village_id, financial_year)
	)`,
	`CREATE TABLE IF NOT EXISTS budget_transactions (
		id UUID PRIMARY KEY,
		budget_id UUID NOT NULL REFERENCES budgets(id),
		category TEXT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		description TEXT NOT NULL,
		spent_by UUID NOT NULL,
		date TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY,
		village_id UUID NOT NULL REFERENCES villages(id),
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		ward_number INT NOT NULL,
		estimated_cost DOUBLE PRECISION NOT NULL,
		actual_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		start_date TIMESTAMPTZ,
		end_date TIMESTAMPTZ,
		photos TEXT[] NOT NULL DEFAULT '{}',
		created_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS grievances (
		id UUID PRIMARY KEY,
		village_id UUID NOT NULL REFERENCES villages(id),
		citizen_id UUID NOT NULL REFERENCES users(id),
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		status TEXT NOT NULL,
		sarpanch_reply TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		resolved_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS announcements (
		id UUID PRIMARY KEY,
		village_id UUID NOT NULL REFERENCES villages(id),
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		type TEXT NOT NULL,
		published_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		village_id UUID NOT NULL REFERENCES villages(id),
		title TEXT NOT NULL,
		file_url TEXT NOT NULL,
		type TEXT NOT NULL,
		uploaded_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id UUID PRIMARY KEY,
		actor_id UUID NOT NULL,
		action TEXT NOT NULL,
		entity TEXT NOT NULL,
		entity_id UUID NOT NULL,
		village_id UUID,
		detail TEXT NOT NULL DEFAULT '',
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}
