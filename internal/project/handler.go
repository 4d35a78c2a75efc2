package project

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

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

// RegisterPublic mounts the read-only endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/projects/village/{villageID}", h.handleListByVillage)
	r.Get("/projects/{projectID}", h.handleGet)
}

// RegisterProtected mounts the mutation endpoints.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/projects", h.handleCreate)
	r.Patch("/projects/{projectID}", h.handleUpdate)
	r.Patch("/projects/{projectID}/status", h.handleUpdateStatus)
	r.Delete("/projects/{projectID}", h.handleDelete)
}

type createProjectRequest struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	WardNumber    int        `json:"ward_number"`
	EstimatedCost float64    `json:"estimated_cost"`
	Status        string     `json:"status"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	Photos        []string   `json:"photos"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	req, ok := httputil.Decode[createProjectRequest](w, r)
	if !ok {
		return
	}
	p, err := h.service.Create(r.Context(), caller, CreateInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		WardNumber:    req.WardNumber,
		EstimatedCost: req.EstimatedCost,
		Status:        Status(req.Status),
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Photos:        req.Photos,
	})
	if err != nil {
		h.fail(w, r, "create project", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleListByVillage(w http.ResponseWriter, r *http.Request) {
	villageID, err := httputil.PathUUID(r, "villageID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var projects []Project
	if raw := r.URL.Query().Get("status"); raw != "" {
		projects, err = h.service.ListByStatus(r.Context(), villageID, Status(raw))
	} else {
		projects, err = h.service.ListByVillage(r.Context(), villageID)
	}
	if err != nil {
		h.fail(w, r, "list projects", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, projects)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathUUID(r, "projectID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get project", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

type updateProjectRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Category      *string    `json:"category"`
	WardNumber    *int       `json:"ward_number"`
	EstimatedCost *float64   `json:"estimated_cost"`
	ActualCost    *float64   `json:"actual_cost"`
	Status        *string    `json:"status"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	Photos        []string   `json:"photos"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "projectID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[updateProjectRequest](w, r)
	if !ok {
		return
	}
	in := UpdateInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		WardNumber:    req.WardNumber,
		EstimatedCost: req.EstimatedCost,
		ActualCost:    req.ActualCost,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Photos:        req.Photos,
	}
	if req.Status != nil {
		status := Status(*req.Status)
		in.Status = &status
	}
	p, err := h.service.Update(r.Context(), caller, id, in)
	if err != nil {
		h.fail(w, r, "update project", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "projectID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[updateStatusRequest](w, r)
	if !ok {
		return
	}
	p, err := h.service.UpdateStatus(r.Context(), caller, id, Status(req.Status))
	if err != nil {
		h.fail(w, r, "update project status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "projectID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		h.fail(w, r, "delete project", err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "project deleted successfully")
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
