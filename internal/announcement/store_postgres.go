package announcement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gramsuvidha/pkg/platform/sentinel"
)

// PostgresStore persists announcements in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const announcementColumns = `id, village_id, title, content, type, published_by, created_at`

func (s *PostgresStore) Create(ctx context.Context, a *Announcement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO announcements (id, village_id, title, content, type, published_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.VillageID, a.Title, a.Content, string(a.Type), a.PublishedBy, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert announcement: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Announcement, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+announcementColumns+` FROM announcements WHERE id = $1`, id)
	return scanAnnouncement(row)
}

func (s *PostgresStore) GetScoped(ctx context.Context, id, villageID uuid.UUID) (*Announcement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+announcementColumns+` FROM announcements
		WHERE id = $1 AND ($2 = '00000000-0000-0000-0000-000000000000'::uuid OR village_id = $2)`,
		id, villageID,
	)
	return scanAnnouncement(row)
}

func (s *PostgresStore) ListByVillage(ctx context.Context, villageID uuid.UUID) ([]Announcement, error) {
	return s.query(ctx, `
		SELECT `+announcementColumns+` FROM announcements WHERE village_id = $1 ORDER BY created_at DESC`,
		villageID,
	)
}

func (s *PostgresStore) ListByVillageAndType(ctx context.Context, villageID uuid.UUID, t Type) ([]Announcement, error) {
	return s.query(ctx, `
		SELECT `+announcementColumns+` FROM announcements
		WHERE village_id = $1 AND type = $2 ORDER BY created_at DESC`,
		villageID, string(t),
	)
}

func (s *PostgresStore) ListLatest(ctx context.Context, villageID uuid.UUID, limit int) ([]Announcement, error) {
	return s.query(ctx, `
		SELECT `+announcementColumns+` FROM announcements
		WHERE village_id = $1 ORDER BY created_at DESC LIMIT $2`,
		villageID, limit,
	)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]Announcement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	var announcements []Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		announcements = append(announcements, *a)
	}
	return announcements, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, a *Announcement) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE announcements SET title = $2, content = $3, type = $4 WHERE id = $1`,
		a.ID, a.Title, a.Content, string(a.Type),
	)
	if err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) TypeCounts(ctx context.Context, villageID uuid.UUID) (map[Type]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, COUNT(*) FROM announcements
		WHERE $1 = '00000000-0000-0000-0000-000000000000'::uuid OR village_id = $1
		GROUP BY type`,
		villageID,
	)
	if err != nil {
		return nil, fmt.Errorf("type counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[Type]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan type count: %w", err)
		}
		counts[Type(t)] = n
	}
	return counts, rows.Err()
}

func scanAnnouncement(row interface{ Scan(dest ...any) error }) (*Announcement, error) {
	var a Announcement
	var t string
	err := row.Scan(&a.ID, &a.VillageID, &a.Title, &a.Content, &t, &a.PublishedBy, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan announcement: %w", err)
	}
	a.Type = Type(t)
	return &a, nil
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
