package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gramsuvidha/pkg/platform/sentinel"
)

// PostgresStore persists document metadata in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const documentColumns = `id, village_id, title, file_url, type, uploaded_by, created_at`

func (s *PostgresStore) Create(ctx context.Context, d *Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, village_id, title, file_url, type, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.VillageID, d.Title, d.FileURL, string(d.Type), d.UploadedBy, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	return scanDocument(row)
}

func (s *PostgresStore) GetScoped(ctx context.Context, id, villageID uuid.UUID) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE id = $1 AND ($2 = '00000000-0000-0000-0000-000000000000'::uuid OR village_id = $2)`,
		id, villageID,
	)
	return scanDocument(row)
}

func (s *PostgresStore) ListByVillage(ctx context.Context, villageID uuid.UUID) ([]Document, error) {
	return s.query(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE village_id = $1 ORDER BY created_at DESC`,
		villageID,
	)
}

func (s *PostgresStore) ListByVillageAndType(ctx context.Context, villageID uuid.UUID, t Type) ([]Document, error) {
	return s.query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE village_id = $1 AND type = $2 ORDER BY created_at DESC`,
		villageID, string(t),
	)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var documents []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, *d)
	}
	return documents, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, d *Document) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET title = $2, type = $3 WHERE id = $1`,
		d.ID, d.Title, string(d.Type),
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireRowAffected(res)
}

func scanDocument(row interface{ Scan(dest ...any) error }) (*Document, error) {
	var d Document
	var t string
	err := row.Scan(&d.ID, &d.VillageID, &d.Title, &d.FileURL, &t, &d.UploadedBy, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	d.Type = Type(t)
	return &d, nil
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
