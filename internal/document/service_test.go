package document

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gramsuvidha/internal/audit"
	"gramsuvidha/internal/platform/blob"
	"gramsuvidha/pkg/domain"
	dErrors "gramsuvidha/pkg/domain-errors"
)

// failingStore fails every Create so the orphan cleanup path can be observed.
type failingStore struct {
	Store
}

func (failingStore) Create(context.Context, *Document) error {
	return errors.New("metadata write failed")
}

func newTestService(t *testing.T) (*Service, *blob.MemoryStore, *audit.MemoryStore) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	blobs := blob.NewMemoryStore()
	auditStore := audit.NewMemoryStore()
	svc := NewService(NewMemoryStore(), blobs, audit.NewPublisher(auditStore, log), log)
	return svc, blobs, auditStore
}

func sarpanch(villageID uuid.UUID) domain.Caller {
	return domain.Caller{ID: uuid.New(), Role: domain.RoleSarpanch, VillageID: villageID}
}

func upload(t *testing.T, svc *Service, c domain.Caller, title string) *Document {
	t.Helper()
	d, err := svc.Upload(context.Background(), c, UploadInput{
		Title:       title,
		Type:        TypeMeetingMinutes,
		Filename:    "minutes.pdf",
		ContentType: "application/pdf",
		Content:     strings.NewReader("%PDF-1.4 minutes"),
	})
	require.NoError(t, err)
	return d
}

func TestUploadStoresBlobAndMetadata(t *testing.T) {
	svc, blobs, auditStore := newTestService(t)
	c := sarpanch(uuid.New())

	d := upload(t, svc, c, "Gram sabha minutes, July")
	assert.Equal(t, TypeMeetingMinutes, d.Type)
	assert.Equal(t, c.VillageID, d.VillageID)
	assert.Equal(t, c.ID, d.UploadedBy)
	assert.True(t, strings.HasSuffix(d.FileURL, ".pdf"), "blob ref keeps the extension")

	data, ok := blobs.Get(d.FileURL)
	require.True(t, ok)
	assert.Equal(t, "%PDF-1.4 minutes", string(data))

	events := auditStore.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, audit.ActionDocumentUploaded, events[len(events)-1].Action)
}

func TestUploadDefaultsToOther(t *testing.T) {
	svc, _, _ := newTestService(t)
	d, err := svc.Upload(context.Background(), sarpanch(uuid.New()), UploadInput{
		Title:       "Scan",
		Filename:    "scan.png",
		ContentType: "image/png",
		Content:     strings.NewReader("png-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, TypeOther, d.Type)
}

func TestUploadRejectsDisallowedMIME(t *testing.T) {
	svc, blobs, _ := newTestService(t)
	c := sarpanch(uuid.New())

	for _, contentType := range []string{"application/x-msdownload", "text/html", "video/mp4", ""} {
		_, err := svc.Upload(context.Background(), c, UploadInput{
			Title:       "Bad upload",
			Filename:    "file.bin",
			ContentType: contentType,
			Content:     strings.NewReader("payload"),
		})
		require.Error(t, err, "content type %q", contentType)
		assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))
	}
	assert.Equal(t, 0, blobs.Len(), "rejected uploads never reach the blob store")
}

func TestUploadRequiresRole(t *testing.T) {
	svc, _, _ := newTestService(t)
	for _, role := range []domain.Role{domain.RoleWardMember, domain.RoleCitizen} {
		_, err := svc.Upload(context.Background(),
			domain.Caller{ID: uuid.New(), Role: role, VillageID: uuid.New()},
			UploadInput{Title: "x", Filename: "x.pdf", ContentType: "application/pdf", Content: strings.NewReader("x")})
		require.Error(t, err, "role %s", role)
		assert.Equal(t, dErrors.CodeForbidden, dErrors.CodeOf(err))
	}
}

func TestUploadCleansUpBlobWhenMetadataFails(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	blobs := blob.NewMemoryStore()
	svc := NewService(failingStore{NewMemoryStore()}, blobs,
		audit.NewPublisher(audit.NewMemoryStore(), log), log)

	_, err := svc.Upload(context.Background(), sarpanch(uuid.New()), UploadInput{
		Title:       "Doomed",
		Filename:    "doomed.pdf",
		ContentType: "application/pdf",
		Content:     strings.NewReader("payload"),
	})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeInternal, dErrors.CodeOf(err))
	assert.Equal(t, 0, blobs.Len(), "no orphaned blob left behind")
}

func TestUpdateEditsMetadataOnly(t *testing.T) {
	svc, _, _ := newTestService(t)
	c := sarpanch(uuid.New())
	d := upload(t, svc, c, "Minutes")

	title := "Minutes (corrected)"
	docType := TypeNotice
	updated, err := svc.Update(context.Background(), c, d.ID, UpdateInput{Title: &title, Type: &docType})
	require.NoError(t, err)
	assert.Equal(t, "Minutes (corrected)", updated.Title)
	assert.Equal(t, TypeNotice, updated.Type)
	assert.Equal(t, d.FileURL, updated.FileURL, "the stored file is immutable")
}

func TestUpdateIsVillageScoped(t *testing.T) {
	svc, _, _ := newTestService(t)
	d := upload(t, svc, sarpanch(uuid.New()), "Minutes")

	title := "renamed"
	_, err := svc.Update(context.Background(), sarpanch(uuid.New()), d.ID, UpdateInput{Title: &title})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err), "foreign documents read as missing")
}

func TestDeleteRemovesBlob(t *testing.T) {
	svc, blobs, _ := newTestService(t)
	c := sarpanch(uuid.New())
	d := upload(t, svc, c, "Minutes")

	require.NoError(t, svc.Delete(context.Background(), c, d.ID))
	assert.Equal(t, 0, blobs.Len())

	_, err := svc.Get(context.Background(), d.ID)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestListByTypeFilters(t *testing.T) {
	svc, _, _ := newTestService(t)
	c := sarpanch(uuid.New())
	upload(t, svc, c, "July minutes")
	_, err := svc.Upload(context.Background(), c, UploadInput{
		Title:       "Budget report FY25",
		Type:        TypeBudgetReport,
		Filename:    "budget.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     strings.NewReader("xlsx-bytes"),
	})
	require.NoError(t, err)

	reports, err := svc.ListByType(context.Background(), c.VillageID, TypeBudgetReport)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "Budget report FY25", reports[0].Title)

	_, err = svc.ListByType(context.Background(), c.VillageID, Type("spreadsheet"))
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeBadRequest, dErrors.CodeOf(err))

	empty, err := svc.ListByVillage(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
