package budget

import (
	"context"

	"github.com/google/uuid"
)

// Store persists budgets and their ledger. A villageID of uuid.Nil on scoped
// lookups means unscoped (admin); any other value restricts the lookup to
// that village, surfacing ErrNotFound for foreign records.
type Store interface {
	CreateBudget(ctx context.Context, b *Budget) error
	GetBudget(ctx context.Context, id uuid.UUID) (*Budget, error)
	GetBudgetScoped(ctx context.Context, id, villageID uuid.UUID) (*Budget, error)
	GetBudgetByYear(ctx context.Context, villageID uuid.UUID, financialYear string) (*Budget, error)
	ListBudgets(ctx context.Context, villageID uuid.UUID) ([]Budget, error)

	// DeleteBudget removes the budget and its transactions atomically,
	// transactions first.
	DeleteBudget(ctx context.Context, id uuid.UUID) error

	ListTransactions(ctx context.Context, budgetID uuid.UUID) ([]Transaction, error)
	ListTransactionsByCategory(ctx context.Context, budgetID uuid.UUID, c Category) ([]Transaction, error)
	CategoryTotals(ctx context.Context, budgetID uuid.UUID) (map[Category]float64, error)

	// RunInTx executes fn inside one store transaction. Ledger mutations go
	// through it so the transaction row and the budget's total_spent can
	// never diverge.
	RunInTx(ctx context.Context, fn func(tx TxStore) error) error
}

// TxStore is the transactional view used inside RunInTx. GetBudgetForUpdate
// takes a row lock so concurrent ledger writes serialize on the budget.
// UpdateBudget lives here too: the allocation floor check must see a
// total_spent that cannot move before the write commits.
type TxStore interface {
	GetBudgetForUpdate(ctx context.Context, id, villageID uuid.UUID) (*Budget, error)
	UpdateBudget(ctx context.Context, b *Budget) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	InsertTransaction(ctx context.Context, t *Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	AddSpent(ctx context.Context, budgetID uuid.UUID, delta float64) error
}
