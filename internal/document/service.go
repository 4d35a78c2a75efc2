package document

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"gramsuvidha/internal/audit"
	"gramsuvidha/internal/authz"
	"gramsuvidha/internal/platform/blob"
	"gramsuvidha/pkg/domain"
	dErrors "gramsuvidha/pkg/domain-errors"
	"gramsuvidha/pkg/platform/sentinel"
	"gramsuvidha/pkg/requestcontext"
)

// allowedMIMETypes is the upload allow-list. Anything else is rejected
// before the blob store is touched.
var allowedMIMETypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"image/png":  true,
	"image/jpeg": true,
}

// Service owns document uploads and metadata. Reads are public; uploads and
// edits are sarpanch/admin.
type Service struct {
	store  Store
	blobs  blob.Store
	audit  *audit.Publisher
	logger *slog.Logger
}

func NewService(store Store, blobs blob.Store, auditor *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, blobs: blobs, audit: auditor, logger: logger}
}

type UploadInput struct {
	Title       string
	Type        Type
	Filename    string
	ContentType string
	Content     io.Reader
}

// Upload stores the file and its metadata. The handler bounds the body size
// before the reader ever reaches here.
func (s *Service) Upload(ctx context.Context, caller domain.Caller, in UploadInput) (*Document, error) {
	if err := authz.Require(caller, authz.ActionWriteDocument); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "title is required")
	}
	documentType := in.Type
	if documentType == "" {
		documentType = TypeOther
	}
	if !documentType.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown type "+string(documentType))
	}
	if !allowedMIMETypes[in.ContentType] {
		return nil, dErrors.New(dErrors.CodeBadRequest, "file type "+in.ContentType+" is not allowed")
	}

	ref, err := s.blobs.Save(ctx, filepath.Ext(in.Filename), in.Content)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store file")
	}

	d := &Document{
		ID:         uuid.New(),
		VillageID:  caller.VillageID,
		Title:      in.Title,
		FileURL:    ref,
		Type:       documentType,
		UploadedBy: caller.ID,
		CreatedAt:  requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, d); err != nil {
		// Metadata failed; don't leave the blob orphaned.
		if removeErr := s.blobs.Remove(ctx, ref); removeErr != nil {
			s.logger.ErrorContext(ctx, "orphaned blob cleanup failed", "ref", ref, "error", removeErr)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create document")
	}

	s.audit.Emit(ctx, audit.Event{
		ActorID:   caller.ID,
		Action:    audit.ActionDocumentUploaded,
		Entity:    "document",
		EntityID:  d.ID,
		VillageID: d.VillageID,
		Detail:    string(documentType),
	})
	return d, nil
}

func (s *Service) ListByVillage(ctx context.Context, villageID uuid.UUID) ([]Document, error) {
	documents, err := s.store.ListByVillage(ctx, villageID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list documents")
	}
	if documents == nil {
		documents = []Document{}
	}
	return documents, nil
}

func (s *Service) ListByType(ctx context.Context, villageID uuid.UUID, t Type) ([]Document, error) {
	if !t.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown type "+string(t))
	}
	documents, err := s.store.ListByVillageAndType(ctx, villageID, t)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list documents")
	}
	if documents == nil {
		documents = []Document{}
	}
	return documents, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get document")
	}
	return d, nil
}

type UpdateInput struct {
	Title *string
	Type  *Type
}

// Update edits metadata only; the stored file is immutable.
func (s *Service) Update(ctx context.Context, caller domain.Caller, id uuid.UUID, in UpdateInput) (*Document, error) {
	if err := authz.Require(caller, authz.ActionWriteDocument); err != nil {
		return nil, err
	}

	d, err := s.getScoped(ctx, id, authz.VillageScope(caller))
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		d.Title = *in.Title
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, dErrors.New(dErrors.CodeBadRequest, "unknown type "+string(*in.Type))
		}
		d.Type = *in.Type
	}

	if err := s.store.Update(ctx, d); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update document")
	}
	return d, nil
}

// Delete removes the metadata and then the stored file. A failing blob
// removal is logged, not surfaced; the record is already gone.
func (s *Service) Delete(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	if err := authz.Require(caller, authz.ActionWriteDocument); err != nil {
		return err
	}

	d, err := s.getScoped(ctx, id, authz.VillageScope(caller))
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete document")
	}
	if err := s.blobs.Remove(ctx, d.FileURL); err != nil {
		s.logger.ErrorContext(ctx, "blob removal failed", "ref", d.FileURL, "error", err)
	}
	return nil
}

func (s *Service) getScoped(ctx context.Context, id, villageID uuid.UUID) (*Document, error) {
	d, err := s.store.GetScoped(ctx, id, villageID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get document")
	}
	return d, nil
}
