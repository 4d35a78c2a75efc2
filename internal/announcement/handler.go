package announcement

import (
	"log/slog"
	"net/http"
	"strconv"

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

// RegisterPublic mounts the read-only feed endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/announcements/village/{villageID}", h.handleListByVillage)
	r.Get("/announcements/village/{villageID}/latest", h.handleListLatest)
	r.Get("/announcements/{announcementID}", h.handleGet)
}

// RegisterProtected mounts the publishing endpoints.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/announcements", h.handleCreate)
	r.Get("/announcements/summary", h.handleTypeSummary)
	r.Patch("/announcements/{announcementID}", h.handleUpdate)
	r.Delete("/announcements/{announcementID}", h.handleDelete)
}

type createAnnouncementRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	req, ok := httputil.Decode[createAnnouncementRequest](w, r)
	if !ok {
		return
	}
	a, err := h.service.Create(r.Context(), caller, CreateInput{
		Title:   req.Title,
		Content: req.Content,
		Type:    Type(req.Type),
	})
	if err != nil {
		h.fail(w, r, "create announcement", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) handleListByVillage(w http.ResponseWriter, r *http.Request) {
	villageID, err := httputil.PathUUID(r, "villageID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var announcements []Announcement
	if raw := r.URL.Query().Get("type"); raw != "" {
		announcements, err = h.service.ListByType(r.Context(), villageID, Type(raw))
	} else {
		announcements, err = h.service.ListByVillage(r.Context(), villageID)
	}
	if err != nil {
		h.fail(w, r, "list announcements", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, announcements)
}

func (h *Handler) handleListLatest(w http.ResponseWriter, r *http.Request) {
	villageID, err := httputil.PathUUID(r, "villageID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a number"))
			return
		}
	}
	announcements, err := h.service.ListLatest(r.Context(), villageID, limit)
	if err != nil {
		h.fail(w, r, "list latest announcements", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, announcements)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathUUID(r, "announcementID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get announcement", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

type updateAnnouncementRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Type    *string `json:"type"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "announcementID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[updateAnnouncementRequest](w, r)
	if !ok {
		return
	}
	in := UpdateInput{Title: req.Title, Content: req.Content}
	if req.Type != nil {
		t := Type(*req.Type)
		in.Type = &t
	}
	a, err := h.service.Update(r.Context(), caller, id, in)
	if err != nil {
		h.fail(w, r, "update announcement", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "announcementID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		h.fail(w, r, "delete announcement", err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "announcement deleted successfully")
}

func (h *Handler) handleTypeSummary(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	summary, err := h.service.TypeSummary(r.Context(), caller)
	if err != nil {
		h.fail(w, r, "announcement summary", err)
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
