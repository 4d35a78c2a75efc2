package grievance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gramsuvidha/pkg/platform/sentinel"
)

// PostgresStore persists grievances in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const grievanceColumns = `id, village_id, citizen_id, title, description, category, status, sarpanch_reply, created_at, resolved_at`

func (s *PostgresStore) Create(ctx context.Context, g *Grievance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO grievances (id, village_id, citizen_id, title, description, category, status, sarpanch_reply, created_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		g.ID, g.VillageID, g.CitizenID, g.Title, g.Description, g.Category,
		string(g.Status), g.SarpanchReply, g.CreatedAt, g.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("insert grievance: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Grievance, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+grievanceColumns+` FROM grievances WHERE id = $1`, id)
	return scanGrievance(row)
}

func (s *PostgresStore) GetScoped(ctx context.Context, id, villageID uuid.UUID) (*Grievance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+grievanceColumns+` FROM grievances
		WHERE id = $1 AND ($2 = '00000000-0000-0000-0000-000000000000'::uuid OR village_id = $2)`,
		id, villageID,
	)
	return scanGrievance(row)
}

func (s *PostgresStore) GetOwned(ctx context.Context, id, citizenID uuid.UUID) (*Grievance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+grievanceColumns+` FROM grievances WHERE id = $1 AND citizen_id = $2`,
		id, citizenID,
	)
	return scanGrievance(row)
}

func (s *PostgresStore) ListByCitizen(ctx context.Context, citizenID uuid.UUID) ([]Grievance, error) {
	return s.query(ctx, `
		SELECT `+grievanceColumns+` FROM grievances WHERE citizen_id = $1 ORDER BY created_at DESC`,
		citizenID,
	)
}

func (s *PostgresStore) ListByVillage(ctx context.Context, villageID uuid.UUID) ([]Grievance, error) {
	return s.query(ctx, `
		SELECT `+grievanceColumns+` FROM grievances
		WHERE $1 = '00000000-0000-0000-0000-000000000000'::uuid OR village_id = $1
		ORDER BY created_at DESC`,
		villageID,
	)
}

func (s *PostgresStore) ListByVillageAndStatus(ctx context.Context, villageID uuid.UUID, status Status) ([]Grievance, error) {
	return s.query(ctx, `
		SELECT `+grievanceColumns+` FROM grievances
		WHERE ($1 = '00000000-0000-0000-0000-000000000000'::uuid OR village_id = $1) AND status = $2
		ORDER BY created_at DESC`,
		villageID, string(status),
	)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]Grievance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list grievances: %w", err)
	}
	defer rows.Close()

	var grievances []Grievance
	for rows.Next() {
		g, err := scanGrievance(rows)
		if err != nil {
			return nil, err
		}
		grievances = append(grievances, *g)
	}
	return grievances, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, g *Grievance) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE grievances SET status = $2, sarpanch_reply = $3, resolved_at = $4 WHERE id = $1`,
		g.ID, string(g.Status), g.SarpanchReply, g.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("update grievance: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM grievances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete grievance: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) StatusCounts(ctx context.Context, villageID uuid.UUID) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM grievances
		WHERE $1 = '00000000-0000-0000-0000-000000000000'::uuid OR village_id = $1
		GROUP BY status`,
		villageID,
	)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[Status(status)] = n
	}
	return counts, rows.Err()
}

func scanGrievance(row interface{ Scan(dest ...any) error }) (*Grievance, error) {
	var g Grievance
	var status string
	err := row.Scan(&g.ID, &g.VillageID, &g.CitizenID, &g.Title, &g.Description,
		&g.Category, &status, &g.SarpanchReply, &g.CreatedAt, &g.ResolvedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan grievance: %w", err)
	}
	g.Status = Status(status)
	return &g, nil
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
