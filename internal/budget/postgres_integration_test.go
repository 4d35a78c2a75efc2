//go:build integration

package budget_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gramsuvidha/internal/audit"
	"gramsuvidha/internal/budget"
	"gramsuvidha/internal/storage"
	"gramsuvidha/pkg/domain"
	dErrors "gramsuvidha/pkg/domain-errors"
	"gramsuvidha/pkg/testutil/containers"
)

func setupPostgres(t *testing.T) (*budget.Service, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	pg := containers.NewPostgresContainer(t)
	require.NoError(t, storage.EnsureSchema(ctx, pg.DB))

	villageID := uuid.New()
	_, err := pg.DB.ExecContext(ctx, `
		INSERT INTO villages (id, name, district, state, pincode)
		VALUES ($1, 'Khedgaon', 'Osmanabad', 'Maharashtra', '413501')`,
		villageID,
	)
	require.NoError(t, err)

	log := slog.New(slog.DiscardHandler)
	svc := budget.NewService(budget.NewPostgresStore(pg.DB),
		audit.NewPublisher(audit.NewPostgresStore(pg.DB), log), nil, log)
	return svc, villageID
}

func TestPostgresLedgerRoundTrip(t *testing.T) {
	svc, villageID := setupPostgres(t)
	ctx := context.Background()
	caller := domain.Caller{ID: uuid.New(), Role: domain.RoleSarpanch, VillageID: villageID}

	b, err := svc.CreateBudget(ctx, caller, budget.CreateInput{
		FinancialYear:  "2025-26",
		TotalAllocated: 500000,
		Description:    "Annual village budget",
	})
	require.NoError(t, err)

	tx, err := svc.RecordTransaction(ctx, caller, b.ID, budget.TransactionInput{
		Category:    budget.CategoryRoad,
		Amount:      150000,
		Description: "Road resurfacing advance",
	})
	require.NoError(t, err)

	got, err := svc.GetBudget(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 150000.0, got.TotalSpent)

	// Overdraft is rejected against the live row.
	_, err = svc.RecordTransaction(ctx, caller, b.ID, budget.TransactionInput{
		Category:    budget.CategoryWater,
		Amount:      400000,
		Description: "Too much",
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))

	// Lowering the allocation below what is spent fails under the same lock.
	lower := 100000.0
	_, err = svc.UpdateBudget(ctx, caller, b.ID, budget.UpdateInput{TotalAllocated: &lower})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))

	require.NoError(t, svc.DeleteTransaction(ctx, caller, tx.ID))

	_, err = svc.UpdateBudget(ctx, caller, b.ID, budget.UpdateInput{TotalAllocated: &lower})
	require.NoError(t, err)

	got, err = svc.GetBudget(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.TotalSpent)
	assert.Equal(t, 100000.0, got.TotalAllocated)
}

// TestPostgresConcurrentTransactions drives concurrent ledger writes against
// the row lock: exactly as many must commit as the allocation can absorb.
func TestPostgresConcurrentTransactions(t *testing.T) {
	svc, villageID := setupPostgres(t)
	ctx := context.Background()
	caller := domain.Caller{ID: uuid.New(), Role: domain.RoleSarpanch, VillageID: villageID}

	b, err := svc.CreateBudget(ctx, caller, budget.CreateInput{
		FinancialYear:  "2025-26",
		TotalAllocated: 1000,
		Description:    "Contended budget",
	})
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordTransaction(ctx, caller, b.ID, budget.TransactionInput{
				Category:    budget.CategoryWater,
				Amount:      100,
				Description: "Concurrent spend",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
		}
	}
	assert.Equal(t, 10, succeeded)

	got, err := svc.GetBudget(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, got.TotalSpent, "never overspent")
}

func TestPostgresDuplicateYearConflicts(t *testing.T) {
	svc, villageID := setupPostgres(t)
	ctx := context.Background()
	caller := domain.Caller{ID: uuid.New(), Role: domain.RoleSarpanch, VillageID: villageID}

	_, err := svc.CreateBudget(ctx, caller, budget.CreateInput{
		FinancialYear: "2025-26", TotalAllocated: 1000, Description: "first",
	})
	require.NoError(t, err)

	_, err = svc.CreateBudget(ctx, caller, budget.CreateInput{
		FinancialYear: "2025-26", TotalAllocated: 2000, Description: "second",
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
}
