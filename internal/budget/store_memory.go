package budget

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"gramsuvidha/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store used in tests. RunInTx takes the write
// lock for the whole callback, which gives the same serialization guarantee
// the row lock gives the PostgreSQL store.
type MemoryStore struct {
	mu           sync.RWMutex
	budgets      map[uuid.UUID]Budget
	transactions map[uuid.UUID]Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		budgets:      make(map[uuid.UUID]Budget),
		transactions: make(map[uuid.UUID]Transaction),
	}
}

func (s *MemoryStore) CreateBudget(_ context.Context, b *Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.budgets {
		if existing.VillageID == b.VillageID && existing.FinancialYear == b.FinancialYear {
			return sentinel.ErrConflict
		}
	}
	s.budgets[b.ID] = *b
	return nil
}

func (s *MemoryStore) GetBudget(_ context.Context, id uuid.UUID) (*Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getBudgetLocked(id, uuid.Nil)
}

func (s *MemoryStore) GetBudgetScoped(_ context.Context, id, villageID uuid.UUID) (*Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getBudgetLocked(id, villageID)
}

func (s *MemoryStore) GetBudgetByYear(_ context.Context, villageID uuid.UUID, financialYear string) (*Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.budgets {
		if b.VillageID == villageID && b.FinancialYear == financialYear {
			out := b
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) getBudgetLocked(id, villageID uuid.UUID) (*Budget, error) {
	b, ok := s.budgets[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if villageID != uuid.Nil && b.VillageID != villageID {
		return nil, sentinel.ErrNotFound
	}
	out := b
	return &out, nil
}

func (s *MemoryStore) ListBudgets(_ context.Context, villageID uuid.UUID) ([]Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var budgets []Budget
	for _, b := range s.budgets {
		if b.VillageID == villageID {
			budgets = append(budgets, b)
		}
	}
	sort.Slice(budgets, func(i, j int) bool {
		return budgets[i].FinancialYear > budgets[j].FinancialYear
	})
	return budgets, nil
}

func (s *MemoryStore) DeleteBudget(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return sentinel.ErrNotFound
	}
	for txID, t := range s.transactions {
		if t.BudgetID == id {
			delete(s.transactions, txID)
		}
	}
	delete(s.budgets, id)
	return nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, budgetID uuid.UUID) ([]Transaction, error) {
	return s.listTransactions(budgetID, "")
}

func (s *MemoryStore) ListTransactionsByCategory(_ context.Context, budgetID uuid.UUID, c Category) ([]Transaction, error) {
	return s.listTransactions(budgetID, c)
}

func (s *MemoryStore) listTransactions(budgetID uuid.UUID, c Category) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var txs []Transaction
	for _, t := range s.transactions {
		if t.BudgetID == budgetID && (c == "" || t.Category == c) {
			txs = append(txs, t)
		}
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].Date.After(txs[j].Date) })
	return txs, nil
}

func (s *MemoryStore) CategoryTotals(_ context.Context, budgetID uuid.UUID) (map[Category]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := make(map[Category]float64)
	for _, t := range s.transactions {
		if t.BudgetID == budgetID {
			totals[t.Category] += t.Amount
		}
	}
	return totals, nil
}

func (s *MemoryStore) RunInTx(_ context.Context, fn func(tx TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Work on copies; apply only on success so a failed callback rolls back.
	shadow := &memoryTxStore{
		budgets:      make(map[uuid.UUID]Budget, len(s.budgets)),
		transactions: make(map[uuid.UUID]Transaction, len(s.transactions)),
	}
	for id, b := range s.budgets {
		shadow.budgets[id] = b
	}
	for id, t := range s.transactions {
		shadow.transactions[id] = t
	}

	if err := fn(shadow); err != nil {
		return err
	}
	s.budgets = shadow.budgets
	s.transactions = shadow.transactions
	return nil
}

type memoryTxStore struct {
	budgets      map[uuid.UUID]Budget
	transactions map[uuid.UUID]Transaction
}

func (s *memoryTxStore) GetBudgetForUpdate(_ context.Context, id, villageID uuid.UUID) (*Budget, error) {
	b, ok := s.budgets[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if villageID != uuid.Nil && b.VillageID != villageID {
		return nil, sentinel.ErrNotFound
	}
	out := b
	return &out, nil
}

func (s *memoryTxStore) UpdateBudget(_ context.Context, b *Budget) error {
	stored, ok := s.budgets[b.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	stored.TotalAllocated = b.TotalAllocated
	stored.Description = b.Description
	s.budgets[b.ID] = stored
	return nil
}

func (s *memoryTxStore) GetTransaction(_ context.Context, id uuid.UUID) (*Transaction, error) {
	t, ok := s.transactions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := t
	return &out, nil
}

func (s *memoryTxStore) InsertTransaction(_ context.Context, t *Transaction) error {
	s.transactions[t.ID] = *t
	return nil
}

func (s *memoryTxStore) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	if _, ok := s.transactions[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *memoryTxStore) AddSpent(_ context.Context, budgetID uuid.UUID, delta float64) error {
	b, ok := s.budgets[budgetID]
	if !ok {
		return sentinel.ErrNotFound
	}
	b.TotalSpent += delta
	s.budgets[budgetID] = b
	return nil
}
