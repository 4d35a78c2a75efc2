package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gramsuvidha/internal/audit"
	"gramsuvidha/internal/authz"
	"gramsuvidha/internal/identity/lockout"
	"gramsuvidha/internal/identity/password"
	"gramsuvidha/internal/identity/token"
	"gramsuvidha/pkg/domain"
	dErrors "gramsuvidha/pkg/domain-errors"
	"gramsuvidha/pkg/platform/sentinel"
	"gramsuvidha/pkg/requestcontext"
)

// Service implements account lifecycle and login. All privileged paths go
// through the authz capability table; self-service paths operate on the
// caller's own row only.
type Service struct {
	store    Store
	villages VillageDirectory
	tokens   *token.Service
	lockout  *lockout.Service
	audit    *audit.Publisher
	logger   *slog.Logger
	tokenTTL time.Duration
}

func NewService(store Store, villages VillageDirectory, tokens *token.Service,
	lockoutSvc *lockout.Service, auditPub *audit.Publisher, logger *slog.Logger, tokenTTL time.Duration) *Service {
	return &Service{
		store:    store,
		villages: villages,
		tokens:   tokens,
		lockout:  lockoutSvc,
		audit:    auditPub,
		logger:   logger,
		tokenTTL: tokenTTL,
	}
}

// RegisterInput is the self-registration payload. Any role field supplied by
// the client is ignored: self-registered users are always citizens.
type RegisterInput struct {
	Name       string
	Phone      string
	Email      string
	Password   string
	WardNumber int
	VillageID  uuid.UUID
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := s.checkVillage(ctx, in.VillageID); err != nil {
		return nil, err
	}
	if len(in.Password) < password.MinLength {
		return nil, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("password must be at least %d characters", password.MinLength))
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.New(),
		Name:         in.Name,
		Phone:        in.Phone,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         domain.RoleCitizen,
		WardNumber:   in.WardNumber,
		VillageID:    in.VillageID,
		IsActive:     true,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "phone or email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create user")
	}
	return u, nil
}

// dummyDigest is a valid bcrypt hash of a random string; Login verifies
// against it when the phone is unknown to keep failure timing uniform.
const dummyDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// LoginInput carries the credentials plus the client IP for lockout keying.
type LoginInput struct {
	Phone    string
	Password string
	ClientIP string
}

// Login exchanges phone+password for a bearer token. Failed attempts feed the
// lockout service; a locked pair is rejected before any password check.
func (s *Service) Login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	if err := s.lockout.Check(ctx, in.Phone, in.ClientIP); err != nil {
		return nil, err
	}

	u, err := s.store.GetUserByPhone(ctx, in.Phone)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "lookup user")
	}
	// Verify against a dummy digest when the user is unknown so response
	// timing doesn't reveal which phones are registered.
	digest := dummyDigest
	if err == nil {
		digest = u.PasswordHash
	}
	if !password.Verify(in.Password, digest) || err != nil {
		s.lockout.RecordFailure(ctx, in.Phone, in.ClientIP)
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid credentials")
	}
	if !u.IsActive {
		return nil, dErrors.New(dErrors.CodeBadRequest, "account is deactivated")
	}

	tok, err := s.tokens.Generate(u.ID, u.Role, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "issue token")
	}
	s.lockout.Clear(ctx, in.Phone, in.ClientIP)
	return &TokenPair{AccessToken: tok, TokenType: "bearer"}, nil
}

// Caller loads the request identity for a validated token subject. Used by
// the auth middleware; inactive or deleted users fail with unauthorized.
func (s *Service) Caller(ctx context.Context, userID uuid.UUID) (domain.Caller, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.Caller{}, dErrors.New(dErrors.CodeUnauthorized, "account no longer exists")
		}
		return domain.Caller{}, dErrors.Wrap(err, dErrors.CodeInternal, "load caller")
	}
	if !u.IsActive {
		return domain.Caller{}, dErrors.New(dErrors.CodeUnauthorized, "account is deactivated")
	}
	return u.Caller(), nil
}

// Me returns the caller's own profile.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.getUser(ctx, userID)
}

// UpdateProfileInput: only name and email are self-serviceable.
type UpdateProfileInput struct {
	Name  *string
	Email *string
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*User, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update user")
	}
	return u, nil
}

// ChangePassword rotates the caller's own password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return dErrors.New(dErrors.CodeBadRequest, "both old and new password are required")
	}
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !password.Verify(oldPassword, u.PasswordHash) {
		return dErrors.New(dErrors.CodeBadRequest, "old password is incorrect")
	}
	if len(newPassword) < password.MinLength {
		return dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("new password must be at least %d characters", password.MinLength))
	}
	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update password")
	}
	return nil
}

// AdminCreateInput lets admins create users with any role.
type AdminCreateInput struct {
	Name       string
	Phone      string
	Email      string
	Password   string
	Role       domain.Role
	WardNumber int
	VillageID  uuid.UUID
}

func (s *Service) AdminCreateUser(ctx context.Context, caller domain.Caller, in AdminCreateInput) (*User, error) {
	if err := authz.Require(caller, authz.ActionManageUsers); err != nil {
		return nil, err
	}
	if _, err := domain.ParseRole(string(in.Role)); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid role")
	}
	if in.Role.NeedsWard() && in.WardNumber <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "ward_number required for ward members and sarpanch")
	}
	if err := s.checkVillage(ctx, in.VillageID); err != nil {
		return nil, err
	}
	if len(in.Password) < password.MinLength {
		return nil, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("password must be at least %d characters", password.MinLength))
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.New(),
		Name:         in.Name,
		Phone:        in.Phone,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		WardNumber:   in.WardNumber,
		VillageID:    in.VillageID,
		IsActive:     true,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "phone or email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create user")
	}

	s.audit.Emit(ctx, audit.Event{
		ActorID:   caller.ID,
		Action:    audit.ActionUserCreated,
		Entity:    "user",
		EntityID:  u.ID,
		VillageID: u.VillageID,
		Detail:    string(u.Role),
	})
	return u, nil
}

func (s *Service) AdminListUsers(ctx context.Context, caller domain.Caller) ([]User, error) {
	if err := authz.Require(caller, authz.ActionManageUsers); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list users")
	}
	return users, nil
}

func (s *Service) AdminGetUser(ctx context.Context, caller domain.Caller, id uuid.UUID) (*User, error) {
	if err := authz.Require(caller, authz.ActionManageUsers); err != nil {
		return nil, err
	}
	return s.getUser(ctx, id)
}

// AdminUpdateRole changes a user's role and optionally their ward number.
func (s *Service) AdminUpdateRole(ctx context.Context, caller domain.Caller, id uuid.UUID, role domain.Role, wardNumber *int) (*User, error) {
	if err := authz.Require(caller, authz.ActionManageUsers); err != nil {
		return nil, err
	}
	if _, err := domain.ParseRole(string(role)); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid role")
	}
	u, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.NeedsWard() && wardNumber == nil && u.WardNumber <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "ward_number required for ward members and sarpanch")
	}
	u.Role = role
	if wardNumber != nil {
		u.WardNumber = *wardNumber
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update role")
	}

	s.audit.Emit(ctx, audit.Event{
		ActorID:   caller.ID,
		Action:    audit.ActionUserRoleChanged,
		Entity:    "user",
		EntityID:  u.ID,
		VillageID: u.VillageID,
		Detail:    string(role),
	})
	return u, nil
}

func (s *Service) AdminDeleteUser(ctx context.Context, caller domain.Caller, id uuid.UUID) error {
	if err := authz.Require(caller, authz.ActionManageUsers); err != nil {
		return err
	}
	u, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete user")
	}

	s.audit.Emit(ctx, audit.Event{
		ActorID:   caller.ID,
		Action:    audit.ActionUserDeleted,
		Entity:    "user",
		EntityID:  id,
		VillageID: u.VillageID,
	})
	return nil
}

func (s *Service) getUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get user")
	}
	return u, nil
}

func (s *Service) checkVillage(ctx context.Context, villageID uuid.UUID) error {
	if villageID == uuid.Nil {
		return dErrors.New(dErrors.CodeBadRequest, "village_id is required")
	}
	ok, err := s.villages.VillageExists(ctx, villageID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check village")
	}
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "village not found")
	}
	return nil
}
