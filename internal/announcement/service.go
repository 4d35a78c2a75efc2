package announcement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"gramsuvidha/internal/authz"
	"gramsuvidha/pkg/domain"
	dErrors "gramsuvidha/pkg/domain-errors"
	"gramsuvidha/pkg/platform/sentinel"
	"gramsuvidha/pkg/requestcontext"
)

// DefaultLatestLimit is how many announcements the latest-feed returns when
// the client does not ask for a specific count.
const DefaultLatestLimit = 5

// Service owns the announcement feed. Reads are public; publishing is
// sarpanch/admin.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

type CreateInput struct {
	Title   string
	Content string
	Type    Type
}

func (s *Service) Create(ctx context.Context, caller domain.Caller, in CreateInput) (*Announcement, error) {
	if err := authz.Require(caller, authz.ActionWriteAnnouncement); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "title is required")
	}
	if in.Content == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "content is required")
	}
	announcementType := in.Type
	if announcementType == "" {
		announcementType = TypeGeneral
	}
	if !announcementType.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown type "+string(announcementType))
	}

	a := &Announcement{
		ID:          uuid.New(),
		VillageID:   caller.VillageID,
		Title:       in.Title,
		Content:     in.Content,
		Type:        announcementType,
		PublishedBy: caller.ID,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create announcement")
	}
	return a, nil
}

func (s *Service) ListByVillage(ctx context.Context, villageID uuid.UUID) ([]Announcement, error) {
	announcements, err := s.store.ListByVillage(ctx, villageID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list announcements")
	}
	if announcements == nil {
		announcements = []Announcement{}
	}
	return announcements, nil
}

func (s *Service) ListByType(ctx context.Context, villageID uuid.UUID, t Type) ([]Announcement, error) {
	if !t.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown type "+string(t))
	}
	announcements, err := s.store.ListByVillageAndType(ctx, villageID, t)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list announcements")
	}
	if announcements == nil {
		announcements = []Announcement{}
	}
	return announcements, nil
}

// ListLatest returns the newest announcements for a village, capped at limit
// (DefaultLatestLimit when limit is not positive).
func (s *Service) ListLatest(ctx context.Context, villageID uuid.UUID, limit int) ([]Announcement, error) {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	announcements, err := s.store.ListLatest(ctx, villageID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list latest announcements")
	}
	if announcements == nil {
		announcements = []Announcement{}
	}
	return announcements, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Announcement, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "announcement not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get announcement")
	}
	return a, nil
}

type UpdateInput struct {
	Title   *string
	Content *string
	Type    *Type
}

func (s *Service) Update(ctx context.Context, caller domain.Caller, id uuid.UUID, in UpdateInput) (*Announcement, error) {
	if err := authz.Require(caller, authz.ActionWriteAnnouncement); err != nil {
		return nil, err
	}

	a, err := s.getScoped(ctx, id, authz.VillageScope(caller))
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		a.Title = *in.Title
	}
	if in.Content != nil {
		a.Content = *in.Content
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, dErrors.New(dErrors.CodeBadRequest, "unknown type "+string(*in.Type))
		}
		a.Type = *in.Type
	}

	if err := s.store.Update(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "announcement not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update announcement")
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	if err := authz.Require(caller, authz.ActionWriteAnnouncement); err != nil {
		return err
	}

	if _, err := s.getScoped(ctx, id, authz.VillageScope(caller)); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "announcement not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete announcement")
	}
	return nil
}

// TypeSummary counts announcements per type in the caller's scope, with
// every type present.
func (s *Service) TypeSummary(ctx context.Context, caller domain.Caller) (map[Type]int, error) {
	if err := authz.Require(caller, authz.ActionWriteAnnouncement); err != nil {
		return nil, err
	}
	counts, err := s.store.TypeCounts(ctx, authz.VillageScope(caller))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "type counts")
	}
	summary := make(map[Type]int, len(AllTypes))
	for _, t := range AllTypes {
		summary[t] = counts[t]
	}
	return summary, nil
}

func (s *Service) getScoped(ctx context.Context, id, villageID uuid.UUID) (*Announcement, error) {
	a, err := s.store.GetScoped(ctx, id, villageID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "announcement not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get announcement")
	}
	return a, nil
}
