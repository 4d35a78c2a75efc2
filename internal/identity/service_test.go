package identity

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gramsuvidha/internal/audit"
	"gramsuvidha/internal/identity/lockout"
	"gramsuvidha/internal/identity/token"
	"gramsuvidha/pkg/domain"
	dErrors "gramsuvidha/pkg/domain-errors"
)

type stubVillages map[uuid.UUID]bool

func (s stubVillages) VillageExists(_ context.Context, id uuid.UUID) (bool, error) {
	return s[id], nil
}

type fixture struct {
	service  *Service
	store    *MemoryStore
	audit    *audit.MemoryStore
	village  uuid.UUID
	villages stubVillages
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	villageID := uuid.New()
	villages := stubVillages{villageID: true}
	store := NewMemoryStore()
	auditStore := audit.NewMemoryStore()

	svc := NewService(store, villages, token.NewService("test-key", "gramsuvidha"),
		lockout.New(lockout.NewMemoryStore(), lockout.DefaultConfig(), log),
		audit.NewPublisher(auditStore, log), log, time.Hour)
	return &fixture{service: svc, store: store, audit: auditStore, village: villageID, villages: villages}
}

func (f *fixture) register(t *testing.T, phone string) *User {
	t.Helper()
	u, err := f.service.Register(context.Background(), RegisterInput{
		Name:      "Asha Patil",
		Phone:     phone,
		Password:  "secret123",
		VillageID: f.village,
	})
	require.NoError(t, err)
	return u
}

func adminCaller() domain.Caller {
	return domain.Caller{ID: uuid.New(), Role: domain.RoleAdmin}
}

func TestRegisterAlwaysCreatesCitizen(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "9876543210")

	assert.Equal(t, domain.RoleCitizen, u.Role)
	assert.True(t, u.IsActive)
	assert.Equal(t, f.village, u.VillageID)
	assert.NotEmpty(t, u.PasswordHash)
	assert.NotEqual(t, "secret123", u.PasswordHash)
}

func TestRegisterRejectsUnknownVillage(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Register(context.Background(), RegisterInput{
		Name:      "Asha Patil",
		Phone:     "9876543210",
		Password:  "secret123",
		VillageID: uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Register(context.Background(), RegisterInput{
		Name:      "Asha Patil",
		Phone:     "9876543210",
		Password:  "short",
		VillageID: f.village,
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestRegisterDuplicatePhoneConflicts(t *testing.T) {
	f := newFixture(t)
	f.register(t, "9876543210")

	_, err := f.service.Register(context.Background(), RegisterInput{
		Name:      "Another User",
		Phone:     "9876543210",
		Password:  "secret123",
		VillageID: f.village,
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.register(t, "9876543210")

	pair, err := f.service.Login(context.Background(), LoginInput{
		Phone: "9876543210", Password: "secret123", ClientIP: "10.0.0.1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, "bearer", pair.TokenType)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.register(t, "9876543210")

	_, err := f.service.Login(context.Background(), LoginInput{
		Phone: "9876543210", Password: "wrong-pass", ClientIP: "10.0.0.1",
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestLoginUnknownPhoneSameError(t *testing.T) {
	f := newFixture(t)
	f.register(t, "9876543210")

	knownErr := func() error {
		_, err := f.service.Login(context.Background(), LoginInput{
			Phone: "9876543210", Password: "wrong-pass", ClientIP: "10.0.0.1",
		})
		return err
	}()
	unknownErr := func() error {
		_, err := f.service.Login(context.Background(), LoginInput{
			Phone: "0000000000", Password: "wrong-pass", ClientIP: "10.0.0.1",
		})
		return err
	}()
	require.Error(t, knownErr)
	require.Error(t, unknownErr)
	assert.Equal(t, knownErr.Error(), unknownErr.Error(), "unknown phones must not be distinguishable")
}

func TestLoginDeactivatedAccount(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "9876543210")
	u.IsActive = false
	require.NoError(t, f.store.UpdateUser(context.Background(), u))

	_, err := f.service.Login(context.Background(), LoginInput{
		Phone: "9876543210", Password: "secret123", ClientIP: "10.0.0.1",
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	f := newFixture(t)
	f.register(t, "9876543210")

	for range 5 {
		_, err := f.service.Login(context.Background(), LoginInput{
			Phone: "9876543210", Password: "wrong-pass", ClientIP: "10.0.0.1",
		})
		require.Error(t, err)
	}

	// Even the right password is rejected while locked.
	_, err := f.service.Login(context.Background(), LoginInput{
		Phone: "9876543210", Password: "secret123", ClientIP: "10.0.0.1",
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestCallerForMiddleware(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "9876543210")

	caller, err := f.service.Caller(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, caller.ID)
	assert.Equal(t, domain.RoleCitizen, caller.Role)
	assert.Equal(t, f.village, caller.VillageID)

	_, err = f.service.Caller(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "9876543210")

	err := f.service.ChangePassword(context.Background(), u.ID, "wrong-old", "newsecret")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))

	require.NoError(t, f.service.ChangePassword(context.Background(), u.ID, "secret123", "newsecret"))

	_, err = f.service.Login(context.Background(), LoginInput{
		Phone: "9876543210", Password: "newsecret", ClientIP: "10.0.0.1",
	})
	assert.NoError(t, err)
}

func TestAdminCreateUserRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	in := AdminCreateInput{
		Name: "Ward Member", Phone: "9876500001", Password: "secret123",
		Role: domain.RoleWardMember, WardNumber: 4, VillageID: f.village,
	}

	_, err := f.service.AdminCreateUser(context.Background(),
		domain.Caller{ID: uuid.New(), Role: domain.RoleSarpanch, VillageID: f.village}, in)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeForbidden, dErrors.CodeOf(err))

	u, err := f.service.AdminCreateUser(context.Background(), adminCaller(), in)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleWardMember, u.Role)
}

func TestAdminCreateUserWardRequired(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.AdminCreateUser(context.Background(), adminCaller(), AdminCreateInput{
		Name: "No Ward", Phone: "9876500002", Password: "secret123",
		Role: domain.RoleSarpanch, VillageID: f.village,
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestAdminUpdateRoleEmitsAudit(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "9876543210")

	ward := 2
	updated, err := f.service.AdminUpdateRole(context.Background(), adminCaller(), u.ID, domain.RoleWardMember, &ward)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleWardMember, updated.Role)
	assert.Equal(t, 2, updated.WardNumber)

	events := f.audit.Events()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, audit.ActionUserRoleChanged, last.Action)
	assert.Equal(t, u.ID, last.EntityID)
}

func TestAdminDeleteUser(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "9876543210")

	require.NoError(t, f.service.AdminDeleteUser(context.Background(), adminCaller(), u.ID))

	_, err := f.service.Me(context.Background(), u.ID)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))

	err = f.service.AdminDeleteUser(context.Background(), adminCaller(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}
