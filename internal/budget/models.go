// Package budget is the financial ledger of the portal. A budget holds an
// allocation per (village, financial year); every rupee spent is a ledger
// transaction, and the running total can never exceed the allocation.
package budget

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies what a transaction was spent on.
type Category string

const (
	CategoryRoad        Category = "road"
	CategoryWater       Category = "water"
	CategorySanitation  Category = "sanitation"
	CategoryEducation   Category = "education"
	CategoryHealth      Category = "health"
	CategoryElectricity Category = "electricity"
	CategoryAgriculture Category = "agriculture"
	CategoryOther       Category = "other"
)

// AllCategories is the fixed category set, in display order. Summaries report
// every category even when its total is zero.
var AllCategories = []Category{
	CategoryRoad, CategoryWater, CategorySanitation, CategoryEducation,
	CategoryHealth, CategoryElectricity, CategoryAgriculture, CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Budget is one financial year's allocation for a village. TotalSpent is
// derived from the transaction ledger and mutated only alongside it.
type Budget struct {
	ID             uuid.UUID `json:"id"`
	VillageID      uuid.UUID `json:"village_id"`
	FinancialYear  string    `json:"financial_year"`
	TotalAllocated float64   `json:"total_allocated"`
	TotalSpent     float64   `json:"total_spent"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}

// Remaining is the unspent headroom.
func (b *Budget) Remaining() float64 {
	return b.TotalAllocated - b.TotalSpent
}

// Transaction is one ledger entry against a budget.
type Transaction struct {
	ID          uuid.UUID `json:"id"`
	BudgetID    uuid.UUID `json:"budget_id"`
	Category    Category  `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	SpentBy     uuid.UUID `json:"spent_by"`
	Date        time.Time `json:"date"`
}

// Summary is the aggregated view of one budget.
type Summary struct {
	BudgetID       uuid.UUID            `json:"budget_id"`
	FinancialYear  string               `json:"financial_year"`
	TotalAllocated float64              `json:"total_allocated"`
	TotalSpent     float64              `json:"total_spent"`
	Remaining      float64              `json:"remaining"`
	PercentSpent   float64              `json:"percent_spent"`
	ByCategory     map[Category]float64 `json:"by_category"`
}
