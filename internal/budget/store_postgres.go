package budget

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gramsuvidha/internal/storage"
	"gramsuvidha/pkg/platform/sentinel"
)

// PostgresStore persists the ledger in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	budgetColumns      = `id, village_id, financial_year, total_allocated, total_spent, description, created_at`
	transactionColumns = `id, budget_id, category, amount, description, spent_by, date`
)

func (s *PostgresStore) CreateBudget(ctx context.Context, b *Budget) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (id, village_id, financial_year, total_allocated, total_spent, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.VillageID, b.FinancialYear, b.TotalAllocated, b.TotalSpent, b.Description, b.CreatedAt,
	)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBudget(ctx context.Context, id uuid.UUID) (*Budget, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = $1`, id)
	return scanBudget(row)
}

func (s *PostgresStore) GetBudgetScoped(ctx context.Context, id, villageID uuid.UUID) (*Budget, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE id = $1 AND ($2 = '00000000-0000-0000-0000-000000000000'::uuid OR village_id = $2)`,
		id, villageID,
	)
	return scanBudget(row)
}

func (s *PostgresStore) GetBudgetByYear(ctx context.Context, villageID uuid.UUID, financialYear string) (*Budget, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+budgetColumns+` FROM budgets WHERE village_id = $1 AND financial_year = $2`,
		villageID, financialYear,
	)
	return scanBudget(row)
}

func (s *PostgresStore) ListBudgets(ctx context.Context, villageID uuid.UUID) ([]Budget, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+budgetColumns+` FROM budgets WHERE village_id = $1 ORDER BY financial_year DESC`,
		villageID,
	)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

func (s *PostgresStore) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete budget: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM budget_transactions WHERE budget_id = $1`, id); err != nil {
		return fmt.Errorf("delete budget transactions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if err := requireRowAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) ListTransactions(ctx context.Context, budgetID uuid.UUID) ([]Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+transactionColumns+` FROM budget_transactions WHERE budget_id = $1 ORDER BY date DESC`,
		budgetID,
	)
}

func (s *PostgresStore) ListTransactionsByCategory(ctx context.Context, budgetID uuid.UUID, c Category) ([]Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+transactionColumns+` FROM budget_transactions
		WHERE budget_id = $1 AND category = $2 ORDER BY date DESC`,
		budgetID, string(c),
	)
}

func (s *PostgresStore) queryTransactions(ctx context.Context, query string, args ...any) ([]Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

func (s *PostgresStore) CategoryTotals(ctx context.Context, budgetID uuid.UUID) (map[Category]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, SUM(amount) FROM budget_transactions
		WHERE budget_id = $1 GROUP BY category`,
		budgetID,
	)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[Category]float64)
	for rows.Next() {
		var c string
		var sum float64
		if err := rows.Scan(&c, &sum); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals[Category(c)] = sum
	}
	return totals, rows.Err()
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(tx TxStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&postgresTxStore{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

type postgresTxStore struct {
	tx *sql.Tx
}

// GetBudgetForUpdate locks the budget row for the duration of the
// transaction so concurrent ledger writes serialize instead of racing.
func (s *postgresTxStore) GetBudgetForUpdate(ctx context.Context, id, villageID uuid.UUID) (*Budget, error) {
	row := s.tx.QueryRowContext(ctx, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE id = $1 AND ($2 = '00000000-0000-0000-0000-000000000000'::uuid OR village_id = $2)
		FOR UPDATE`,
		id, villageID,
	)
	return scanBudget(row)
}

func (s *postgresTxStore) UpdateBudget(ctx context.Context, b *Budget) error {
	res, err := s.tx.ExecContext(ctx, `
		UPDATE budgets SET total_allocated = $2, description = $3 WHERE id = $1`,
		b.ID, b.TotalAllocated, b.Description,
	)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRowAffected(res)
}

func (s *postgresTxStore) GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	row := s.tx.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM budget_transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

func (s *postgresTxStore) InsertTransaction(ctx context.Context, t *Transaction) error {
	_, err := s.tx.ExecContext(ctx, `
		INSERT INTO budget_transactions (id, budget_id, category, amount, description, spent_by, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.BudgetID, string(t.Category), t.Amount, t.Description, t.SpentBy, t.Date,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *postgresTxStore) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := s.tx.ExecContext(ctx, `DELETE FROM budget_transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRowAffected(res)
}

func (s *postgresTxStore) AddSpent(ctx context.Context, budgetID uuid.UUID, delta float64) error {
	res, err := s.tx.ExecContext(ctx, `UPDATE budgets SET total_spent = total_spent + $2 WHERE id = $1`,
		budgetID, delta,
	)
	if err != nil {
		return fmt.Errorf("update total_spent: %w", err)
	}
	return requireRowAffected(res)
}

func scanBudget(row interface{ Scan(dest ...any) error }) (*Budget, error) {
	var b Budget
	err := row.Scan(&b.ID, &b.VillageID, &b.FinancialYear, &b.TotalAllocated,
		&b.TotalSpent, &b.Description, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan budget: %w", err)
	}
	return &b, nil
}

func scanTransaction(row interface{ Scan(dest ...any) error }) (*Transaction, error) {
	var t Transaction
	var category string
	err := row.Scan(&t.ID, &t.BudgetID, &category, &t.Amount, &t.Description, &t.SpentBy, &t.Date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	t.Category = Category(category)
	return &t, nil
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
