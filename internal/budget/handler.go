package budget

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	dErrors "gramsuvidha/pkg/domain-errors"
	"gramsuvidha/pkg/platform/httputil"
	"gramsuvidha/pkg/requestcontext"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the read-only ledger endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/budgets/village/{villageID}", h.handleListByVillage)
	r.Get("/budgets/{budgetID}", h.handleGet)
	r.Get("/budgets/{budgetID}/transactions", h.handleListTransactions)
	r.Get("/budgets/{budgetID}/summary", h.handleSummary)
}

// RegisterProtected mounts the mutation endpoints (sarpanch/admin).
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/budgets", h.handleCreate)
	r.Patch("/budgets/{budgetID}", h.handleUpdate)
	r.Delete("/budgets/{budgetID}", h.handleDelete)
	r.Post("/budgets/{budgetID}/transactions", h.handleRecordTransaction)
	r.Delete("/budgets/transactions/{transactionID}", h.handleDeleteTransaction)
}

type createBudgetRequest struct {
	FinancialYear  string    `json:"financial_year"`
	TotalAllocated float64   `json:"total_allocated"`
	Description    string    `json:"description"`
	VillageID      uuid.UUID `json:"village_id"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	req, ok := httputil.Decode[createBudgetRequest](w, r)
	if !ok {
		return
	}
	b, err := h.service.CreateBudget(r.Context(), caller, CreateInput{
		FinancialYear:  req.FinancialYear,
		TotalAllocated: req.TotalAllocated,
		Description:    req.Description,
		VillageID:      req.VillageID,
	})
	if err != nil {
		h.fail(w, r, "create budget", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, b)
}

type updateBudgetRequest struct {
	TotalAllocated *float64 `json:"total_allocated"`
	Description    *string  `json:"description"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "budgetID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[updateBudgetRequest](w, r)
	if !ok {
		return
	}
	b, err := h.service.UpdateBudget(r.Context(), caller, id, UpdateInput{
		TotalAllocated: req.TotalAllocated,
		Description:    req.Description,
	})
	if err != nil {
		h.fail(w, r, "update budget", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleListByVillage(w http.ResponseWriter, r *http.Request) {
	villageID, err := httputil.PathUUID(r, "villageID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	budgets, err := h.service.ListBudgets(r.Context(), villageID)
	if err != nil {
		h.fail(w, r, "list budgets", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, budgets)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathUUID(r, "budgetID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := h.service.GetBudget(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get budget", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathUUID(r, "budgetID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var category *Category
	if raw := r.URL.Query().Get("category"); raw != "" {
		c := Category(raw)
		category = &c
	}
	txs, err := h.service.ListTransactions(r.Context(), id, category)
	if err != nil {
		h.fail(w, r, "list transactions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, txs)
}

type recordTransactionRequest struct {
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

func (h *Handler) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "budgetID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[recordTransactionRequest](w, r)
	if !ok {
		return
	}
	t, err := h.service.RecordTransaction(r.Context(), caller, id, TransactionInput{
		Category:    Category(req.Category),
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		h.fail(w, r, "record transaction", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "transactionID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteTransaction(r.Context(), caller, id); err != nil {
		h.fail(w, r, "delete transaction", err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "transaction deleted successfully")
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "budgetID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteBudget(r.Context(), caller, id); err != nil {
		h.fail(w, r, "delete budget", err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "budget deleted successfully")
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathUUID(r, "budgetID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	summary, err := h.service.Summarize(r.Context(), id)
	if err != nil {
		h.fail(w, r, "summarize budget", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), op+" failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
