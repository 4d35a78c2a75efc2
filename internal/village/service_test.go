package village

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gramsuvidha/internal/audit"
	"gramsuvidha/pkg/domain"
	dErrors "gramsuvidha/pkg/domain-errors"
)

func newTestService(t *testing.T) (*Service, *audit.MemoryStore) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	auditStore := audit.NewMemoryStore()
	return NewService(NewMemoryStore(), audit.NewPublisher(auditStore, log), log), auditStore
}

func admin() domain.Caller {
	return domain.Caller{ID: uuid.New(), Role: domain.RoleAdmin}
}

func create(t *testing.T, svc *Service, name, district string) *Village {
	t.Helper()
	v, err := svc.Create(context.Background(), admin(), CreateInput{
		Name: name, District: district, State: "Maharashtra", Pincode: "413501",
	})
	require.NoError(t, err)
	return v
}

func TestCreateRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	for _, role := range []domain.Role{domain.RoleSarpanch, domain.RoleWardMember, domain.RoleCitizen} {
		_, err := svc.Create(context.Background(), domain.Caller{ID: uuid.New(), Role: role}, CreateInput{
			Name: "Khedgaon", District: "Osmanabad", State: "Maharashtra", Pincode: "413501",
		})
		require.Error(t, err, "role %s", role)
		assert.Equal(t, dErrors.CodeForbidden, dErrors.CodeOf(err))
	}
}

func TestCreateDuplicateNameDistrictConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	create(t, svc, "Khedgaon", "Osmanabad")

	_, err := svc.Create(context.Background(), admin(), CreateInput{
		Name: "Khedgaon", District: "Osmanabad", State: "Maharashtra", Pincode: "413501",
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))

	// Same name in another district is a different village.
	_, err = svc.Create(context.Background(), admin(), CreateInput{
		Name: "Khedgaon", District: "Pune", State: "Maharashtra", Pincode: "412301",
	})
	assert.NoError(t, err)
}

func TestListAndGetArePublic(t *testing.T) {
	svc, _ := newTestService(t)
	v := create(t, svc, "Khedgaon", "Osmanabad")
	create(t, svc, "Ambajogai", "Beed")

	// No caller involved at all.
	villages, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, villages, 2)

	got, err := svc.Get(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Khedgaon", got.Name)

	_, err = svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestUpdatePatchesFields(t *testing.T) {
	svc, _ := newTestService(t)
	v := create(t, svc, "Khedgaon", "Osmanabad")

	pincode := "413502"
	updated, err := svc.Update(context.Background(), admin(), v.ID, UpdateInput{Pincode: &pincode})
	require.NoError(t, err)
	assert.Equal(t, "413502", updated.Pincode)
	assert.Equal(t, "Khedgaon", updated.Name, "unset fields stay put")
}

func TestDeleteEmitsAudit(t *testing.T) {
	svc, auditStore := newTestService(t)
	v := create(t, svc, "Khedgaon", "Osmanabad")

	actor := admin()
	require.NoError(t, svc.Delete(context.Background(), actor, v.ID))

	_, err := svc.Get(context.Background(), v.ID)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))

	events := auditStore.Events()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, audit.ActionVillageDeleted, last.Action)
	assert.Equal(t, v.ID, last.EntityID)
	assert.Equal(t, actor.ID, last.ActorID)

	err = svc.Delete(context.Background(), actor, v.ID)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestVillageExists(t *testing.T) {
	svc, _ := newTestService(t)
	v := create(t, svc, "Khedgaon", "Osmanabad")

	ok, err := svc.VillageExists(context.Background(), v.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VillageExists(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}
