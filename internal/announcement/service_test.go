package announcement

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gramsuvidha/pkg/domain"
	dErrors "gramsuvidha/pkg/domain-errors"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewMemoryStore(), slog.New(slog.DiscardHandler))
}

func sarpanch(villageID uuid.UUID) domain.Caller {
	return domain.Caller{ID: uuid.New(), Role: domain.RoleSarpanch, VillageID: villageID}
}

func publish(t *testing.T, svc *Service, c domain.Caller, title string, announcementType Type) *Announcement {
	t.Helper()
	a, err := svc.Create(context.Background(), c, CreateInput{
		Title:   title,
		Content: "Details at the panchayat office.",
		Type:    announcementType,
	})
	require.NoError(t, err)
	return a
}

func TestCreateDefaultsToGeneral(t *testing.T) {
	svc := newTestService(t)
	c := sarpanch(uuid.New())

	a := publish(t, svc, c, "Water supply schedule", "")
	assert.Equal(t, TypeGeneral, a.Type)
	assert.Equal(t, c.VillageID, a.VillageID)
	assert.Equal(t, c.ID, a.PublishedBy)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	c := sarpanch(uuid.New())

	_, err := svc.Create(context.Background(), c, CreateInput{Content: "x"})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err), "title required")

	_, err = svc.Create(context.Background(), c, CreateInput{Title: "x"})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err), "content required")

	_, err = svc.Create(context.Background(), c, CreateInput{Title: "x", Content: "y", Type: Type("gossip")})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err), "unknown type")
}

func TestPublishingRequiresRole(t *testing.T) {
	svc := newTestService(t)
	village := uuid.New()
	for _, role := range []domain.Role{domain.RoleWardMember, domain.RoleCitizen} {
		_, err := svc.Create(context.Background(),
			domain.Caller{ID: uuid.New(), Role: role, VillageID: village},
			CreateInput{Title: "x", Content: "y"})
		require.Error(t, err, "role %s", role)
		assert.Equal(t, dErrors.CodeForbidden, dErrors.CodeOf(err))
	}
}

func TestListByTypeFilters(t *testing.T) {
	svc := newTestService(t)
	c := sarpanch(uuid.New())
	publish(t, svc, c, "Gram sabha on Sunday", TypeMeeting)
	publish(t, svc, c, "Pension scheme enrollment", TypeScheme)

	meetings, err := svc.ListByType(context.Background(), c.VillageID, TypeMeeting)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "Gram sabha on Sunday", meetings[0].Title)

	_, err = svc.ListByType(context.Background(), c.VillageID, Type("gossip"))
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
}

func TestListLatestCapsAtLimit(t *testing.T) {
	svc := newTestService(t)
	c := sarpanch(uuid.New())
	for i := range 8 {
		publish(t, svc, c, fmt.Sprintf("Notice %d", i), TypeNotice)
	}

	latest, err := svc.ListLatest(context.Background(), c.VillageID, 0)
	require.NoError(t, err)
	assert.Len(t, latest, DefaultLatestLimit)

	latest, err = svc.ListLatest(context.Background(), c.VillageID, 3)
	require.NoError(t, err)
	assert.Len(t, latest, 3)

	// Newest first.
	assert.Equal(t, "Notice 7", latest[0].Title)
}

func TestUpdateIsVillageScoped(t *testing.T) {
	svc := newTestService(t)
	a := publish(t, svc, sarpanch(uuid.New()), "Original", TypeNotice)

	title := "Edited"
	_, err := svc.Update(context.Background(), sarpanch(uuid.New()), a.ID, UpdateInput{Title: &title})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err), "foreign announcements read as missing")

	adminCaller := domain.Caller{ID: uuid.New(), Role: domain.RoleAdmin}
	updated, err := svc.Update(context.Background(), adminCaller, a.ID, UpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)
}

func TestDelete(t *testing.T) {
	svc := newTestService(t)
	c := sarpanch(uuid.New())
	a := publish(t, svc, c, "To be removed", TypeNotice)

	require.NoError(t, svc.Delete(context.Background(), c, a.ID))

	_, err := svc.Get(context.Background(), a.ID)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestTypeSummaryIncludesEveryType(t *testing.T) {
	svc := newTestService(t)
	c := sarpanch(uuid.New())
	publish(t, svc, c, "Gram sabha", TypeMeeting)
	publish(t, svc, c, "Second gram sabha", TypeMeeting)
	publish(t, svc, c, "Flood warning", TypeAlert)

	summary, err := svc.TypeSummary(context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, summary, len(AllTypes))
	assert.Equal(t, 2, summary[TypeMeeting])
	assert.Equal(t, 1, summary[TypeAlert])
	assert.Equal(t, 0, summary[TypeScheme])

	// Scoped: another village's sarpanch sees only their own counts.
	foreign, err := svc.TypeSummary(context.Background(), sarpanch(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, 0, foreign[TypeMeeting])
}
