package http

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gramsuvidha/internal/announcement"
	"gramsuvidha/internal/audit"
	"gramsuvidha/internal/budget"
	"gramsuvidha/internal/document"
	"gramsuvidha/internal/grievance"
	"gramsuvidha/internal/identity"
	"gramsuvidha/internal/identity/lockout"
	"gramsuvidha/internal/identity/token"
	"gramsuvidha/internal/platform/blob"
	"gramsuvidha/internal/platform/metrics"
	"gramsuvidha/internal/project"
	"gramsuvidha/internal/village"
	"gramsuvidha/pkg/domain"
	"gramsuvidha/pkg/testutil"
)

// Prometheus collectors register globally, so the router fixture shares one
// metrics instance across all tests in this package.
var testMetrics = metrics.New()

type routerFixture struct {
	handler  http.Handler
	villages *village.Service
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	auditor := audit.NewPublisher(audit.NewMemoryStore(), log)

	villageService := village.NewService(village.NewMemoryStore(), auditor, log)
	tokens := token.NewService("router-test-key", "gramsuvidha")
	identityService := identity.NewService(identity.NewMemoryStore(), villageService, tokens,
		lockout.New(lockout.NewMemoryStore(), lockout.DefaultConfig(), log), auditor, log, time.Hour)
	budgetService := budget.NewService(budget.NewMemoryStore(), auditor, nil, log)
	grievanceService := grievance.NewService(grievance.NewMemoryStore(), auditor, log)
	projectService := project.NewService(project.NewMemoryStore(), log)
	announcementService := announcement.NewService(announcement.NewMemoryStore(), log)
	documentService := document.NewService(document.NewMemoryStore(), blob.NewMemoryStore(), auditor, log)

	handler := New(Handlers{
		Identity:     identity.NewHandler(identityService, log),
		Village:      village.NewHandler(villageService, log),
		Budget:       budget.NewHandler(budgetService, log),
		Grievance:    grievance.NewHandler(grievanceService, log),
		Project:      project.NewHandler(projectService, log),
		Announcement: announcement.NewHandler(announcementService, log),
		Document:     document.NewHandler(documentService, document.DefaultMaxUploadBytes, log),
	}, Deps{
		TokenValidator: tokens,
		CallerLoader:   identityService,
		Metrics:        testMetrics,
		Logger:         log,
	})
	return &routerFixture{handler: handler, villages: villageService}
}

// seedVillage creates a village directly through the service so registration
// over HTTP has somewhere to point.
func (f *routerFixture) seedVillage(t *testing.T) string {
	t.Helper()
	v, err := f.villages.Create(context.Background(),
		domain.Caller{ID: uuid.New(), Role: domain.RoleAdmin}, village.CreateInput{
			Name: "Khedgaon", District: "Osmanabad", State: "Maharashtra", Pincode: "413501",
		})
	require.NoError(t, err)
	return v.ID.String()
}

func (f *routerFixture) login(t *testing.T, villageID string) string {
	t.Helper()
	rr := testutil.DoRequest(f.handler, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/register", map[string]any{
		"name":       "Asha Patil",
		"phone":      "9876543210",
		"password":   "secret123",
		"village_id": villageID,
	}))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	rr = testutil.DoRequest(f.handler, testutil.NewJSONRequest(t, http.MethodPost, "/api/auth/login", map[string]any{
		"phone":    "9876543210",
		"password": "secret123",
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	pair := testutil.UnmarshalResponse[identity.TokenPair](t, rr)
	require.NotEmpty(t, pair.AccessToken)
	return pair.AccessToken
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	f := newRouterFixture(t)

	rr := testutil.DoRequest(f.handler, testutil.NewRequest(t, http.MethodGet, "/health"))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = testutil.DoRequest(f.handler, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestPublicRoutesNeedNoToken(t *testing.T) {
	f := newRouterFixture(t)
	f.seedVillage(t)

	rr := testutil.DoRequest(f.handler, testutil.NewRequest(t, http.MethodGet, "/api/villages"))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	f := newRouterFixture(t)

	rr := testutil.DoRequest(f.handler, testutil.NewRequest(t, http.MethodGet, "/api/auth/me"))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	req := testutil.NewRequest(t, http.MethodGet, "/api/grievances/my")
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr = testutil.DoRequest(f.handler, req)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestRegisterLoginAndMe(t *testing.T) {
	f := newRouterFixture(t)
	villageID := f.seedVillage(t)
	accessToken := f.login(t, villageID)

	req := testutil.NewRequest(t, http.MethodGet, "/api/auth/me")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rr := testutil.DoRequest(f.handler, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	me := testutil.UnmarshalResponse[identity.User](t, rr)
	assert.Equal(t, "Asha Patil", me.Name)
	assert.Equal(t, villageID, me.VillageID.String())
}

func TestGrievanceFlowOverHTTP(t *testing.T) {
	f := newRouterFixture(t)
	villageID := f.seedVillage(t)
	accessToken := f.login(t, villageID)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/grievances", map[string]any{
		"title":       "Broken hand pump",
		"description": "The hand pump near the school has been broken for a week.",
		"category":    "water",
	})
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rr := testutil.DoRequest(f.handler, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	g := testutil.UnmarshalResponse[grievance.Grievance](t, rr)
	assert.Equal(t, grievance.StatusOpen, g.Status)

	req = testutil.NewRequest(t, http.MethodGet, "/api/grievances/my")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rr = testutil.DoRequest(f.handler, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	mine := testutil.UnmarshalResponse[[]grievance.Grievance](t, rr)
	assert.Len(t, *mine, 1)
}

func TestWriteEndpointsEnforceRoleOverHTTP(t *testing.T) {
	f := newRouterFixture(t)
	villageID := f.seedVillage(t)
	accessToken := f.login(t, villageID)

	// A citizen's token reaches the handler but the service refuses.
	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/announcements", map[string]any{
		"title":   "Not allowed",
		"content": "Citizens cannot publish.",
	})
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rr := testutil.DoRequest(f.handler, req)
	testutil.AssertStatus(t, rr, http.StatusForbidden)

	envelope := testutil.UnmarshalErrorResponse(t, rr)
	assert.Equal(t, false, envelope["success"])
}
