package project

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gramsuvidha/internal/authz"
	"gramsuvidha/pkg/domain"
	dErrors "gramsuvidha/pkg/domain-errors"
	"gramsuvidha/pkg/platform/sentinel"
	"gramsuvidha/pkg/requestcontext"
)

// Service owns project CRUD. Sarpanches and admins manage all wards; ward
// members only their own.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

type CreateInput struct {
	Title         string
	Description   string
	Category      string
	WardNumber    int
	EstimatedCost float64
	Status        Status
	StartDate     *time.Time
	EndDate       *time.Time
	Photos        []string
}

func (s *Service) Create(ctx context.Context, caller domain.Caller, in CreateInput) (*Project, error) {
	if err := authz.Require(caller, authz.ActionWriteProject); err != nil {
		return nil, err
	}
	if err := authz.RequireWard(caller, in.WardNumber); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "title is required")
	}
	if in.EstimatedCost < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "estimated_cost cannot be negative")
	}
	status := in.Status
	if status == "" {
		status = StatusPlanned
	}
	if !status.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown status "+string(status))
	}

	now := requestcontext.Now(ctx)
	p := &Project{
		ID:            uuid.New(),
		VillageID:     caller.VillageID,
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		WardNumber:    in.WardNumber,
		EstimatedCost: in.EstimatedCost,
		Status:        status,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		Photos:        in.Photos,
		CreatedBy:     caller.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if p.Photos == nil {
		p.Photos = []string{}
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create project")
	}
	return p, nil
}

func (s *Service) ListByVillage(ctx context.Context, villageID uuid.UUID) ([]Project, error) {
	projects, err := s.store.ListByVillage(ctx, villageID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list projects")
	}
	if projects == nil {
		projects = []Project{}
	}
	return projects, nil
}

func (s *Service) ListByStatus(ctx context.Context, villageID uuid.UUID, status Status) ([]Project, error) {
	if !status.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown status "+string(status))
	}
	projects, err := s.store.ListByVillageAndStatus(ctx, villageID, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list projects")
	}
	if projects == nil {
		projects = []Project{}
	}
	return projects, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get project")
	}
	return p, nil
}

type UpdateInput struct {
	Title         *string
	Description   *string
	Category      *string
	WardNumber    *int
	EstimatedCost *float64
	ActualCost    *float64
	Status        *Status
	StartDate     *time.Time
	EndDate       *time.Time
	Photos        []string
}

func (s *Service) Update(ctx context.Context, caller domain.Caller, id uuid.UUID, in UpdateInput) (*Project, error) {
	if err := authz.Require(caller, authz.ActionWriteProject); err != nil {
		return nil, err
	}

	p, err := s.getScoped(ctx, id, authz.VillageScope(caller))
	if err != nil {
		return nil, err
	}
	// A ward member must be in the project's ward, and cannot move the
	// project into a different ward either.
	if err := authz.RequireWard(caller, p.WardNumber); err != nil {
		return nil, err
	}
	if in.WardNumber != nil {
		if err := authz.RequireWard(caller, *in.WardNumber); err != nil {
			return nil, err
		}
		p.WardNumber = *in.WardNumber
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.EstimatedCost != nil {
		p.EstimatedCost = *in.EstimatedCost
	}
	if in.ActualCost != nil {
		p.ActualCost = *in.ActualCost
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, dErrors.New(dErrors.CodeBadRequest, "unknown status "+string(*in.Status))
		}
		p.Status = *in.Status
	}
	if in.StartDate != nil {
		p.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		p.EndDate = in.EndDate
	}
	if in.Photos != nil {
		p.Photos = in.Photos
	}
	p.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update project")
	}
	return p, nil
}

// UpdateStatus is the shortcut for the common case of just moving a project
// along its lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, caller domain.Caller, id uuid.UUID, status Status) (*Project, error) {
	return s.Update(ctx, caller, id, UpdateInput{Status: &status})
}

func (s *Service) Delete(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	if err := authz.Require(caller, authz.ActionWriteProject); err != nil {
		return err
	}

	p, err := s.getScoped(ctx, id, authz.VillageScope(caller))
	if err != nil {
		return err
	}
	if err := authz.RequireWard(caller, p.WardNumber); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete project")
	}
	return nil
}

func (s *Service) getScoped(ctx context.Context, id, villageID uuid.UUID) (*Project, error) {
	p, err := s.store.GetScoped(ctx, id, villageID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "project not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get project")
	}
	return p, nil
}
