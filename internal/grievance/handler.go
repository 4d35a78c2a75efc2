package grievance

import (
	"log/slog"
	"net/http"

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

// RegisterProtected mounts all grievance endpoints; every one of them needs
// an authenticated caller.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/grievances", h.handleSubmit)
	r.Get("/grievances/my", h.handleListMine)
	r.Get("/grievances/my/{grievanceID}", h.handleGetMine)
	r.Delete("/grievances/my/{grievanceID}", h.handleDeleteMine)

	r.Get("/grievances", h.handleListAll)
	r.Get("/grievances/summary", h.handleStatusSummary)
	r.Get("/grievances/{grievanceID}", h.handleGet)
	r.Patch("/grievances/{grievanceID}/reply", h.handleReply)
}

type submitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	req, ok := httputil.Decode[submitRequest](w, r)
	if !ok {
		return
	}
	g, err := h.service.Submit(r.Context(), caller, SubmitInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		h.fail(w, r, "submit grievance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, g)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	grievances, err := h.service.ListMine(r.Context(), caller)
	if err != nil {
		h.fail(w, r, "list my grievances", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, grievances)
}

func (h *Handler) handleGetMine(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "grievanceID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	g, err := h.service.GetMine(r.Context(), caller, id)
	if err != nil {
		h.fail(w, r, "get my grievance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) handleDeleteMine(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "grievanceID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteMine(r.Context(), caller, id); err != nil {
		h.fail(w, r, "delete my grievance", err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "grievance deleted successfully")
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())

	var (
		grievances []Grievance
		err        error
	)
	if raw := r.URL.Query().Get("status"); raw != "" {
		grievances, err = h.service.ListByStatus(r.Context(), caller, Status(raw))
	} else {
		grievances, err = h.service.ListAll(r.Context(), caller)
	}
	if err != nil {
		h.fail(w, r, "list grievances", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, grievances)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "grievanceID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	g, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		h.fail(w, r, "get grievance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, g)
}

type replyRequest struct {
	Reply  *string `json:"sarpanch_reply"`
	Status *string `json:"status"`
}

func (h *Handler) handleReply(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "grievanceID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[replyRequest](w, r)
	if !ok {
		return
	}
	in := ReplyInput{Reply: req.Reply}
	if req.Status != nil {
		status := Status(*req.Status)
		in.Status = &status
	}
	g, err := h.service.Reply(r.Context(), caller, id, in)
	if err != nil {
		h.fail(w, r, "reply to grievance", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) handleStatusSummary(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	summary, err := h.service.StatusSummary(r.Context(), caller)
	if err != nil {
		h.fail(w, r, "grievance summary", err)
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
