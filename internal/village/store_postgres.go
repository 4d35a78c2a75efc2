package village

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gramsuvidha/internal/storage"
	"gramsuvidha/pkg/platform/sentinel"
)

// PostgresStore persists villages in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const villageColumns = `id, name, district, state, pincode, created_at`

func (s *PostgresStore) Create(ctx context.Context, v *Village) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO villages (id, name, district, state, pincode, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.Name, v.District, v.State, v.Pincode, v.CreatedAt,
	)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert village: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Village, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+villageColumns+` FROM villages WHERE id = $1`, id)
	return scanVillage(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]Village, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+villageColumns+` FROM villages ORDER BY name, district`)
	if err != nil {
		return nil, fmt.Errorf("list villages: %w", err)
	}
	defer rows.Close()

	var villages []Village
	for rows.Next() {
		v, err := scanVillage(rows)
		if err != nil {
			return nil, err
		}
		villages = append(villages, *v)
	}
	return villages, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, v *Village) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE villages
		SET name = $2, district = $3, state = $4, pincode = $5
		WHERE id = $1`,
		v.ID, v.Name, v.District, v.State, v.Pincode,
	)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update village: %w", err)
	}
	return requireRowAffected(res)
}

// cascadeDeletes removes dependents children-first so no foreign key is left
// dangling mid-transaction. The order is deliberate and load-bearing.
var cascadeDeletes = []string{
	`DELETE FROM documents WHERE village_id = $1`,
	`DELETE FROM announcements WHERE village_id = $1`,
	`DELETE FROM grievances WHERE village_id = $1`,
	`DELETE FROM projects WHERE village_id = $1`,
	`DELETE FROM budget_transactions WHERE budget_id IN (SELECT id FROM budgets WHERE village_id = $1)`,
	`DELETE FROM budgets WHERE village_id = $1`,
	`DELETE FROM users WHERE village_id = $1`,
}

func (s *PostgresStore) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cascade delete: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range cascadeDeletes {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("cascade delete village: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM villages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete village: %w", err)
	}
	if err := requireRowAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) VillageExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM villages WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("village exists: %w", err)
	}
	return exists, nil
}

func scanVillage(row interface{ Scan(dest ...any) error }) (*Village, error) {
	var v Village
	err := row.Scan(&v.ID, &v.Name, &v.District, &v.State, &v.Pincode, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan village: %w", err)
	}
	return &v, nil
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
