package document

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "gramsuvidha/pkg/domain-errors"
	"gramsuvidha/pkg/platform/httputil"
	"gramsuvidha/pkg/requestcontext"
)

// DefaultMaxUploadBytes is the hard cap on one uploaded file unless
// configured otherwise.
const DefaultMaxUploadBytes = 10 << 20

type Handler struct {
	service   *Service
	maxUpload int64
	logger    *slog.Logger
}

func NewHandler(service *Service, maxUpload int64, logger *slog.Logger) *Handler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &Handler{service: service, maxUpload: maxUpload, logger: logger}
}

// RegisterPublic mounts the read-only endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/documents/village/{villageID}", h.handleListByVillage)
	r.Get("/documents/{documentID}", h.handleGet)
}

// RegisterProtected mounts the upload and edit endpoints.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/documents", h.handleUpload)
	r.Patch("/documents/{documentID}", h.handleUpdate)
	r.Delete("/documents/{documentID}", h.handleDelete)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())

	// Bound the whole request body before parsing so an oversized upload
	// never reaches disk.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "file exceeds the upload size limit"))
			return
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "file field is required"))
		return
	}
	defer file.Close()

	d, err := h.service.Upload(r.Context(), caller, UploadInput{
		Title:       r.FormValue("title"),
		Type:        Type(r.FormValue("type")),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	})
	if err != nil {
		h.fail(w, r, "upload document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) handleListByVillage(w http.ResponseWriter, r *http.Request) {
	villageID, err := httputil.PathUUID(r, "villageID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var documents []Document
	if raw := r.URL.Query().Get("type"); raw != "" {
		documents, err = h.service.ListByType(r.Context(), villageID, Type(raw))
	} else {
		documents, err = h.service.ListByVillage(r.Context(), villageID)
	}
	if err != nil {
		h.fail(w, r, "list documents", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, documents)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathUUID(r, "documentID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

type updateDocumentRequest struct {
	Title *string `json:"title"`
	Type  *string `json:"type"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "documentID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[updateDocumentRequest](w, r)
	if !ok {
		return
	}
	in := UpdateInput{Title: req.Title}
	if req.Type != nil {
		t := Type(*req.Type)
		in.Type = &t
	}
	d, err := h.service.Update(r.Context(), caller, id, in)
	if err != nil {
		h.fail(w, r, "update document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	caller, _ := requestcontext.Caller(r.Context())
	id, err := httputil.PathUUID(r, "documentID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		h.fail(w, r, "delete document", err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "document deleted successfully")
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
