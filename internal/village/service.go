package village

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"gramsuvidha/internal/audit"
	"gramsuvidha/internal/authz"
	"gramsuvidha/pkg/domain"
	dErrors "gramsuvidha/pkg/domain-errors"
	"gramsuvidha/pkg/platform/sentinel"
	"gramsuvidha/pkg/requestcontext"
)

// Service owns the village registry. Reads are public; mutations are admin
// only, and deleting a village takes all of its dependent records with it.
type Service struct {
	store  Store
	audit  *audit.Publisher
	logger *slog.Logger
}

func NewService(store Store, auditor *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, audit: auditor, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]Village, error) {
	villages, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list villages")
	}
	if villages == nil {
		villages = []Village{}
	}
	return villages, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Village, error) {
	v, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "village not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get village")
	}
	return v, nil
}

type CreateInput struct {
	Name     string
	District string
	State    string
	Pincode  string
}

func (s *Service) Create(ctx context.Context, caller domain.Caller, in CreateInput) (*Village, error) {
	if err := authz.Require(caller, authz.ActionManageVillages); err != nil {
		return nil, err
	}

	v := &Village{
		ID:        uuid.New(),
		Name:      in.Name,
		District:  in.District,
		State:     in.State,
		Pincode:   in.Pincode,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, v); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a village with this name already exists in the district")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create village")
	}

	s.audit.Emit(ctx, audit.Event{
		ActorID:  caller.ID,
		Action:   audit.ActionVillageCreated,
		Entity:   "village",
		EntityID: v.ID,
	})
	return v, nil
}

type UpdateInput struct {
	Name     *string
	District *string
	State    *string
	Pincode  *string
}

func (s *Service) Update(ctx context.Context, caller domain.Caller, id uuid.UUID, in UpdateInput) (*Village, error) {
	if err := authz.Require(caller, authz.ActionManageVillages); err != nil {
		return nil, err
	}

	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		v.Name = *in.Name
	}
	if in.District != nil {
		v.District = *in.District
	}
	if in.State != nil {
		v.State = *in.State
	}
	if in.Pincode != nil {
		v.Pincode = *in.Pincode
	}

	if err := s.store.Update(ctx, v); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "a village with this name already exists in the district")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "village not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update village")
	}
	return v, nil
}

// Delete removes the village and everything scoped to it in one transaction.
func (s *Service) Delete(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	if err := authz.Require(caller, authz.ActionManageVillages); err != nil {
		return err
	}

	if err := s.store.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "village not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete village")
	}

	s.logger.InfoContext(ctx, "village deleted with all dependent records",
		"village_id", id,
		"actor_id", caller.ID,
	)
	s.audit.Emit(ctx, audit.Event{
		ActorID:  caller.ID,
		Action:   audit.ActionVillageDeleted,
		Entity:   "village",
		EntityID: id,
	})
	return nil
}

// VillageExists satisfies identity.VillageDirectory without exposing the
// store to other modules.
func (s *Service) VillageExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.store.VillageExists(ctx, id)
}
