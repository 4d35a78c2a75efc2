package village

import (
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
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
	r.Get("/villages", h.handleList)
	r.Get("/villages/{villageID}", h.handleGet)
}

// RegisterProtected mounts the admin mutation endpoints.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/villages", h.handleCreate)
	r.Patch("/villages/{villageID}", h.handleUpdate)
	r.Delete("/villages/{villageID}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	villages, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, r, "list villages", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, villages)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathUUID(r, "villageID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get village", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

type createVillageRequest struct {
	Name     string `json:"name"`
	District string `json:"district"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

func (req createVillageRequest) validate() error {
	if !govalidator.StringLength(req.Name, "1", "100") {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if !govalidator.StringLength(req.District, "1", "100") {
		return dErrors.New(dErrors.CodeBadRequest, "district is required")
	}
	if !govalidator.StringLength(req.State, "1", "100") {
		return dErrors.New(dErrors.CodeBadRequest, "state is required")
	}
	if !govalidator.IsNumeric(req.Pincode) || len(req.Pincode) != 6 {
		return dErrors.New(dErrors.CodeBadRequest, "pincode must be 6 digits")
	}
	return nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	req, ok := httputil.Decode[createVillageRequest](w, r)
	if !ok {
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.service.Create(r.Context(), caller, CreateInput{
		Name:     req.Name,
		District: req.District,
		State:    req.State,
		Pincode:  req.Pincode,
	})
	if err != nil {
		h.fail(w, r, "create village", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, v)
}

type updateVillageRequest struct {
	Name     *string `json:"name"`
	District *string `json:"district"`
	State    *string `json:"state"`
	Pincode  *string `json:"pincode"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "villageID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[updateVillageRequest](w, r)
	if !ok {
		return
	}
	if req.Pincode != nil && (!govalidator.IsNumeric(*req.Pincode) || len(*req.Pincode) != 6) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "pincode must be 6 digits"))
		return
	}
	v, err := h.service.Update(r.Context(), caller, id, UpdateInput{
		Name:     req.Name,
		District: req.District,
		State:    req.State,
		Pincode:  req.Pincode,
	})
	if err != nil {
		h.fail(w, r, "update village", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "villageID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		h.fail(w, r, "delete village", err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "village and all related data deleted successfully")
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
