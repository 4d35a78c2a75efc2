package grievance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"gramsuvidha/internal/audit"
	"gramsuvidha/internal/authz"
	"gramsuvidha/pkg/domain"
	dErrors "gramsuvidha/pkg/domain-errors"
	"gramsuvidha/pkg/platform/sentinel"
	"gramsuvidha/pkg/requestcontext"
)

// Service owns the grievance lifecycle. Citizens submit and manage their own
// open grievances; sarpanches and admins moderate within their scope.
type Service struct {
	store  Store
	audit  *audit.Publisher
	logger *slog.Logger
}

func NewService(store Store, auditor *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, audit: auditor, logger: logger}
}

type SubmitInput struct {
	Title       string
	Description string
	Category    string
}

// Submit files a new grievance in the caller's village. Any authenticated
// user may file one; it always starts open.
func (s *Service) Submit(ctx context.Context, caller domain.Caller, in SubmitInput) (*Grievance, error) {
	if in.Title == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "title is required")
	}
	if in.Description == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "description is required")
	}

	g := &Grievance{
		ID:          uuid.New(),
		VillageID:   caller.VillageID,
		CitizenID:   caller.ID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Status:      StatusOpen,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, g); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create grievance")
	}
	return g, nil
}

func (s *Service) ListMine(ctx context.Context, caller domain.Caller) ([]Grievance, error) {
	grievances, err := s.store.ListByCitizen(ctx, caller.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list grievances")
	}
	if grievances == nil {
		grievances = []Grievance{}
	}
	return grievances, nil
}

// GetMine returns one of the caller's own grievances. Ownership is folded
// into the lookup, so someone else's grievance reads as not found.
func (s *Service) GetMine(ctx context.Context, caller domain.Caller, id uuid.UUID) (*Grievance, error) {
	g, err := s.store.GetOwned(ctx, id, caller.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "grievance not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get grievance")
	}
	return g, nil
}

// DeleteMine withdraws one of the caller's own grievances. Only grievances
// still open can be withdrawn; once moderation has touched one it stays on
// record.
func (s *Service) DeleteMine(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	g, err := s.GetMine(ctx, caller, id)
	if err != nil {
		return err
	}
	if g.Status != StatusOpen {
		return dErrors.New(dErrors.CodeBadRequest, "only open grievances can be deleted")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "grievance not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete grievance")
	}
	return nil
}

func (s *Service) ListAll(ctx context.Context, caller domain.Caller) ([]Grievance, error) {
	if err := authz.Require(caller, authz.ActionModerateGrievances); err != nil {
		return nil, err
	}
	grievances, err := s.store.ListByVillage(ctx, authz.VillageScope(caller))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list grievances")
	}
	if grievances == nil {
		grievances = []Grievance{}
	}
	return grievances, nil
}

func (s *Service) ListByStatus(ctx context.Context, caller domain.Caller, status Status) ([]Grievance, error) {
	if err := authz.Require(caller, authz.ActionModerateGrievances); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown status "+string(status))
	}
	grievances, err := s.store.ListByVillageAndStatus(ctx, authz.VillageScope(caller), status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list grievances")
	}
	if grievances == nil {
		grievances = []Grievance{}
	}
	return grievances, nil
}

func (s *Service) Get(ctx context.Context, caller domain.Caller, id uuid.UUID) (*Grievance, error) {
	if err := authz.Require(caller, authz.ActionModerateGrievances); err != nil {
		return nil, err
	}
	return s.getScoped(ctx, id, authz.VillageScope(caller))
}

type ReplyInput struct {
	Reply  *string
	Status *Status
}

// Reply records moderation on a non-terminal grievance: a reply text, a
// status transition, or both. Moving to resolved stamps ResolvedAt exactly
// once.
func (s *Service) Reply(ctx context.Context, caller domain.Caller, id uuid.UUID, in ReplyInput) (*Grievance, error) {
	if err := authz.Require(caller, authz.ActionModerateGrievances); err != nil {
		return nil, err
	}
	if in.Reply == nil && in.Status == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "nothing to update")
	}

	g, err := s.getScoped(ctx, id, authz.VillageScope(caller))
	if err != nil {
		return nil, err
	}
	if g.Status.Terminal() {
		return nil, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("grievance is already %s", g.Status))
	}

	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, dErrors.New(dErrors.CodeBadRequest, "unknown status "+string(*in.Status))
		}
		if !CanTransition(g.Status, *in.Status) {
			return nil, dErrors.New(dErrors.CodeBadRequest,
				fmt.Sprintf("cannot move grievance from %s to %s", g.Status, *in.Status))
		}
		g.Status = *in.Status
		if g.Status == StatusResolved && g.ResolvedAt == nil {
			now := requestcontext.Now(ctx)
			g.ResolvedAt = &now
		}
	}
	if in.Reply != nil {
		g.SarpanchReply = in.Reply
	}

	if err := s.store.Update(ctx, g); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "grievance not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update grievance")
	}

	s.audit.Emit(ctx, audit.Event{
		ActorID:   caller.ID,
		Action:    audit.ActionGrievanceReplied,
		Entity:    "grievance",
		EntityID:  g.ID,
		VillageID: g.VillageID,
		Detail:    string(g.Status),
	})
	return g, nil
}

// StatusSummary counts grievances per status in the caller's scope, with
// every status present.
func (s *Service) StatusSummary(ctx context.Context, caller domain.Caller) (map[Status]int, error) {
	if err := authz.Require(caller, authz.ActionModerateGrievances); err != nil {
		return nil, err
	}
	counts, err := s.store.StatusCounts(ctx, authz.VillageScope(caller))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "status counts")
	}
	summary := make(map[Status]int, len(AllStatuses))
	for _, status := range AllStatuses {
		summary[status] = counts[status]
	}
	return summary, nil
}

func (s *Service) getScoped(ctx context.Context, id, villageID uuid.UUID) (*Grievance, error) {
	g, err := s.store.GetScoped(ctx, id, villageID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "grievance not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get grievance")
	}
	return g, nil
}
