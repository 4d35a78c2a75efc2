package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"gramsuvidha/internal/audit"
	"gramsuvidha/internal/authz"
	"gramsuvidha/pkg/domain"
	dErrors "gramsuvidha/pkg/domain-errors"
	"gramsuvidha/pkg/platform/sentinel"
	"gramsuvidha/pkg/requestcontext"
)

// Service enforces the ledger invariant: 0 <= total_spent <= total_allocated,
// and total_spent moves only together with a transaction row, inside one
// store transaction.
type Service struct {
	store   Store
	audit   *audit.Publisher
	metrics *Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

func NewService(store Store, auditor *audit.Publisher, metrics *Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		audit:   auditor,
		metrics: metrics,
		tracer:  otel.Tracer("gramsuvidha/budget"),
		logger:  logger,
	}
}

type CreateInput struct {
	FinancialYear  string
	TotalAllocated float64
	Description    string
	VillageID      uuid.UUID // admins only; ignored for scoped callers
}

func (s *Service) CreateBudget(ctx context.Context, caller domain.Caller, in CreateInput) (*Budget, error) {
	if err := authz.Require(caller, authz.ActionWriteBudget); err != nil {
		return nil, err
	}
	if in.FinancialYear == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "financial_year is required")
	}
	if in.TotalAllocated <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "total_allocated must be positive")
	}

	villageID := caller.VillageID
	if caller.Role == domain.RoleAdmin {
		if in.VillageID == uuid.Nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, "village_id is required")
		}
		villageID = in.VillageID
	}

	// Pre-check for a clean message; the DB unique constraint still backs
	// this up against races.
	if _, err := s.store.GetBudgetByYear(ctx, villageID, in.FinancialYear); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("a budget for %s already exists in this village", in.FinancialYear))
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "check budget year")
	}

	b := &Budget{
		ID:             uuid.New(),
		VillageID:      villageID,
		FinancialYear:  in.FinancialYear,
		TotalAllocated: in.TotalAllocated,
		Description:    in.Description,
		CreatedAt:      requestcontext.Now(ctx),
	}
	if err := s.store.CreateBudget(ctx, b); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict,
				fmt.Sprintf("a budget for %s already exists in this village", in.FinancialYear))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create budget")
	}

	s.audit.Emit(ctx, audit.Event{
		ActorID:   caller.ID,
		Action:    audit.ActionBudgetCreated,
		Entity:    "budget",
		EntityID:  b.ID,
		VillageID: villageID,
	})
	return b, nil
}

type UpdateInput struct {
	TotalAllocated *float64
	Description    *string
}

// UpdateBudget patches allocation and description. The allocation floor
// check and the write happen under the same row lock as ledger writes: a
// transaction committing between a plain read and the write could otherwise
// push total_spent above the lowered allocation.
func (s *Service) UpdateBudget(ctx context.Context, caller domain.Caller, id uuid.UUID, in UpdateInput) (*Budget, error) {
	if err := authz.Require(caller, authz.ActionWriteBudget); err != nil {
		return nil, err
	}

	var out *Budget
	err := s.store.RunInTx(ctx, func(tx TxStore) error {
		b, err := tx.GetBudgetForUpdate(ctx, id, authz.VillageScope(caller))
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "budget not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "lock budget")
		}
		if in.TotalAllocated != nil {
			if *in.TotalAllocated < b.TotalSpent {
				return dErrors.New(dErrors.CodeBadRequest,
					fmt.Sprintf("total_allocated cannot be lowered below the %.2f already spent", b.TotalSpent))
			}
			b.TotalAllocated = *in.TotalAllocated
		}
		if in.Description != nil {
			b.Description = *in.Description
		}
		if err := tx.UpdateBudget(ctx, b); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "update budget")
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ListBudgets(ctx context.Context, villageID uuid.UUID) ([]Budget, error) {
	budgets, err := s.store.ListBudgets(ctx, villageID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list budgets")
	}
	if budgets == nil {
		budgets = []Budget{}
	}
	return budgets, nil
}

func (s *Service) GetBudget(ctx context.Context, id uuid.UUID) (*Budget, error) {
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "budget not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get budget")
	}
	return b, nil
}

// ListTransactions returns the ledger, optionally filtered by category.
func (s *Service) ListTransactions(ctx context.Context, budgetID uuid.UUID, category *Category) ([]Transaction, error) {
	if _, err := s.GetBudget(ctx, budgetID); err != nil {
		return nil, err
	}

	var (
		txs []Transaction
		err error
	)
	if category != nil {
		if !category.Valid() {
			return nil, dErrors.New(dErrors.CodeBadRequest, "unknown category "+string(*category))
		}
		txs, err = s.store.ListTransactionsByCategory(ctx, budgetID, *category)
	} else {
		txs, err = s.store.ListTransactions(ctx, budgetID)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list transactions")
	}
	if txs == nil {
		txs = []Transaction{}
	}
	return txs, nil
}

type TransactionInput struct {
	Category    Category
	Amount      float64
	Description string
}

// RecordTransaction appends a ledger entry. The insert and the total_spent
// increment commit together with the budget row locked, so the invariant
// holds under concurrent writers.
func (s *Service) RecordTransaction(ctx context.Context, caller domain.Caller, budgetID uuid.UUID, in TransactionInput) (*Transaction, error) {
	if err := authz.Require(caller, authz.ActionWriteBudget); err != nil {
		return nil, err
	}
	if !in.Category.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown category "+string(in.Category))
	}
	if in.Amount <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "amount must be positive")
	}

	ctx, span := s.tracer.Start(ctx, "budget.RecordTransaction",
		trace.WithAttributes(
			attribute.String("budget.id", budgetID.String()),
			attribute.String("transaction.category", string(in.Category)),
			attribute.Float64("transaction.amount", in.Amount),
		))
	defer span.End()

	t := &Transaction{
		ID:          uuid.New(),
		BudgetID:    budgetID,
		Category:    in.Category,
		Amount:      in.Amount,
		Description: in.Description,
		SpentBy:     caller.ID,
		Date:        requestcontext.Now(ctx),
	}

	var villageID uuid.UUID
	err := s.store.RunInTx(ctx, func(tx TxStore) error {
		b, err := tx.GetBudgetForUpdate(ctx, budgetID, authz.VillageScope(caller))
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "budget not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "lock budget")
		}
		if in.Amount > b.Remaining() {
			s.metrics.recordOverdraft()
			return dErrors.New(dErrors.CodeBadRequest,
				fmt.Sprintf("amount %.2f exceeds remaining budget %.2f", in.Amount, b.Remaining()))
		}
		villageID = b.VillageID
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "insert transaction")
		}
		if err := tx.AddSpent(ctx, budgetID, in.Amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "increment total_spent")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.recordTransaction(in.Category, in.Amount)
	s.audit.Emit(ctx, audit.Event{
		ActorID:   caller.ID,
		Action:    audit.ActionTransactionAdded,
		Entity:    "budget_transaction",
		EntityID:  t.ID,
		VillageID: villageID,
		Detail:    fmt.Sprintf("%s %.2f", in.Category, in.Amount),
	})
	return t, nil
}

// DeleteTransaction removes a ledger entry and gives its amount back to the
// budget by decrementing total_spent, never total_allocated.
func (s *Service) DeleteTransaction(ctx context.Context, caller domain.Caller, transactionID uuid.UUID) error {
	if err := authz.Require(caller, authz.ActionWriteBudget); err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "budget.DeleteTransaction",
		trace.WithAttributes(attribute.String("transaction.id", transactionID.String())))
	defer span.End()

	var villageID uuid.UUID
	err := s.store.RunInTx(ctx, func(tx TxStore) error {
		t, err := tx.GetTransaction(ctx, transactionID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "transaction not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "get transaction")
		}
		b, err := tx.GetBudgetForUpdate(ctx, t.BudgetID, authz.VillageScope(caller))
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "transaction not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "lock budget")
		}
		villageID = b.VillageID
		if err := tx.DeleteTransaction(ctx, transactionID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "delete transaction")
		}
		if err := tx.AddSpent(ctx, t.BudgetID, -t.Amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "decrement total_spent")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Emit(ctx, audit.Event{
		ActorID:   caller.ID,
		Action:    audit.ActionTransactionRemoved,
		Entity:    "budget_transaction",
		EntityID:  transactionID,
		VillageID: villageID,
	})
	return nil
}

// DeleteBudget removes the budget and its whole ledger, transactions first.
func (s *Service) DeleteBudget(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	if err := authz.Require(caller, authz.ActionWriteBudget); err != nil {
		return err
	}

	b, err := s.getScoped(ctx, id, authz.VillageScope(caller))
	if err != nil {
		return err
	}
	if err := s.store.DeleteBudget(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "budget not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete budget")
	}

	s.audit.Emit(ctx, audit.Event{
		ActorID:   caller.ID,
		Action:    audit.ActionBudgetDeleted,
		Entity:    "budget",
		EntityID:  id,
		VillageID: b.VillageID,
	})
	return nil
}

// Summarize aggregates one budget. The budget row and the per-category
// totals are independent reads, fetched concurrently.
func (s *Service) Summarize(ctx context.Context, budgetID uuid.UUID) (*Summary, error) {
	var (
		b      *Budget
		totals map[Category]float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		b, err = s.store.GetBudget(gctx, budgetID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "budget not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "get budget")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		totals, err = s.store.CategoryTotals(gctx, budgetID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "category totals")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byCategory := make(map[Category]float64, len(AllCategories))
	for _, c := range AllCategories {
		byCategory[c] = totals[c]
	}

	percent := 0.0
	if b.TotalAllocated > 0 {
		percent = math.Round(b.TotalSpent/b.TotalAllocated*10000) / 100
	}
	return &Summary{
		BudgetID:       b.ID,
		FinancialYear:  b.FinancialYear,
		TotalAllocated: b.TotalAllocated,
		TotalSpent:     b.TotalSpent,
		Remaining:      b.Remaining(),
		PercentSpent:   percent,
		ByCategory:     byCategory,
	}, nil
}

func (s *Service) getScoped(ctx context.Context, id, villageID uuid.UUID) (*Budget, error) {
	b, err := s.store.GetBudgetScoped(ctx, id, villageID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "budget not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get budget")
	}
	return b, nil
}
