package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gramsuvidha/pkg/platform/sentinel"
)

// PostgresStore persists projects in PostgreSQL. Photos round-trip through
// pq.Array to keep their order.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const projectColumns = `id, village_id, title, description, category, ward_number, estimated_cost, actual_cost, status, start_date, end_date, photos, created_by, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, p *Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, village_id, title, description, category, ward_number, estimated_cost, actual_cost, status, start_date, end_date, photos, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID, p.VillageID, p.Title, p.Description, p.Category, p.WardNumber,
		p.EstimatedCost, p.ActualCost, string(p.Status), p.StartDate, p.EndDate,
		pq.Array(p.Photos), p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

func (s *PostgresStore) GetScoped(ctx context.Context, id, villageID uuid.UUID) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE id = $1 AND ($2 = '00000000-0000-0000-0000-000000000000'::uuid OR village_id = $2)`,
		id, villageID,
	)
	return scanProject(row)
}

func (s *PostgresStore) ListByVillage(ctx context.Context, villageID uuid.UUID) ([]Project, error) {
	return s.query(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE village_id = $1 ORDER BY created_at DESC`,
		villageID,
	)
}

func (s *PostgresStore) ListByVillageAndStatus(ctx context.Context, villageID uuid.UUID, status Status) ([]Project, error) {
	return s.query(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE village_id = $1 AND status = $2 ORDER BY created_at DESC`,
		villageID, string(status),
	)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, p *Project) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET title = $2, description = $3, category = $4, ward_number = $5,
		    estimated_cost = $6, actual_cost = $7, status = $8,
		    start_date = $9, end_date = $10, photos = $11, updated_at = $12
		WHERE id = $1`,
		p.ID, p.Title, p.Description, p.Category, p.WardNumber,
		p.EstimatedCost, p.ActualCost, string(p.Status),
		p.StartDate, p.EndDate, pq.Array(p.Photos), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return requireRowAffected(res)
}

func scanProject(row interface{ Scan(dest ...any) error }) (*Project, error) {
	var p Project
	var status string
	err := row.Scan(&p.ID, &p.VillageID, &p.Title, &p.Description, &p.Category,
		&p.WardNumber, &p.EstimatedCost, &p.ActualCost, &status,
		&p.StartDate, &p.EndDate, pq.Array(&p.Photos), &p.CreatedBy,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	p.Status = Status(status)
	return &p, nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
