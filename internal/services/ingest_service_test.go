package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/diploma-service/internal/events"
	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/validator"
)

type ingestFixture struct {
	repo       *fakeRepository
	service    IngestService
	publisher  *events.MockEventPublisher
	university *models.University
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	repo := newFakeRepository()
	logger := newTestLogger()
	publisher := events.NewMockEventPublisher(logger)

	return &ingestFixture{
		repo:       repo,
		service:    NewIngestService(repo, nil, logger, validator.New(), publisher),
		publisher:  publisher,
		university: repo.addUniversity("Foo University", "@foo.edu"),
	}
}

func roster(lines ...string) string {
	all := append([]string{"degree_type,major,graduation_date,student_email"}, lines...)
	return strings.Join(all, "\n")
}

func TestIngestService_BulkUpload(t *testing.T) {
	f := newIngestFixture(t)

	data := roster(
		"Bachelor of Science,Computer Science,2025-06-15,alice@foo.edu",
		"Master of Science,Physics,2025-06-15,Bob@Foo.edu",
	)
	resp, err := f.service.BulkUpload(context.Background(), f.university.ID, "roster.csv", strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Created)
	require.Len(t, resp.DegreeIDs, 2)

	degrees, _, err := f.repo.degrees.List(context.Background(), nil, f.university.ID, listAllFilters())
	require.NoError(t, err)
	require.Len(t, degrees, 2)
	for _, d := range degrees {
		assert.Equal(t, models.DegreeDraft, d.Status, "ingested rows start as drafts")
	}
	assert.Equal(t, "bob@foo.edu", degrees[1].StudentEmail)

	published := f.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventBatchIngested, published[0].Type)
}

func TestIngestService_BulkUpload_AllOrNothing(t *testing.T) {
	f := newIngestFixture(t)

	data := roster(
		"Bachelor of Science,Computer Science,2025-06-15,alice@foo.edu",
		"Bachelor of Science,,bad-date,bob@foo.edu",
	)
	_, err := f.service.BulkUpload(context.Background(), f.university.ID, "roster.csv", strings.NewReader(data))
	require.Error(t, err)

	var batchErr *BatchValidationError
	require.ErrorAs(t, err, &batchErr)

	// Row 3 contributes both failures; valid row 2 must not commit.
	for _, rowErr := range batchErr.Rows {
		assert.Equal(t, 3, rowErr.Row)
	}
	assert.Len(t, batchErr.Rows, 2)

	degrees, _, err := f.repo.degrees.List(context.Background(), nil, f.university.ID, listAllFilters())
	require.NoError(t, err)
	assert.Empty(t, degrees, "a rejected batch commits nothing")
	assert.Empty(t, f.publisher.GetPublishedEvents())
}

func TestIngestService_BulkUpload_IntraBatchDuplicates(t *testing.T) {
	f := newIngestFixture(t)

	data := roster(
		"Bachelor of Science,Computer Science,2025-06-15,alice@foo.edu",
		"Master of Science,Physics,2025-06-15,ALICE@foo.edu",
	)
	_, err := f.service.BulkUpload(context.Background(), f.university.ID, "roster.csv", strings.NewReader(data))
	require.Error(t, err)

	var batchErr *BatchValidationError
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.Rows, 1)
	assert.Equal(t, 3, batchErr.Rows[0].Row)
	assert.Contains(t, batchErr.Rows[0].Reason, "duplicate")
	assert.Contains(t, batchErr.Rows[0].Reason, "row 2", "duplicate detection is case-insensitive and names the first occurrence")
}

func TestIngestService_BulkUpload_DomainMismatchRows(t *testing.T) {
	f := newIngestFixture(t)

	data := roster(
		"Bachelor of Science,Computer Science,2025-06-15,alice@bar.edu",
	)
	_, err := f.service.BulkUpload(context.Background(), f.university.ID, "roster.csv", strings.NewReader(data))
	require.Error(t, err)

	var batchErr *BatchValidationError
	require.ErrorAs(t, err, &batchErr)
	require.Len(t, batchErr.Rows, 1)
	assert.Contains(t, batchErr.Rows[0].Reason, "@foo.edu")
}

func TestIngestService_BulkUpload_EmptyFile(t *testing.T) {
	f := newIngestFixture(t)

	_, err := f.service.BulkUpload(context.Background(), f.university.ID, "roster.csv", strings.NewReader(roster()))
	require.Error(t, err)

	var batchErr *BatchValidationError
	assert.ErrorAs(t, err, &batchErr)
}

func TestIngestService_BulkUpload_UnknownUniversity(t *testing.T) {
	f := newIngestFixture(t)

	data := roster("Bachelor of Science,Computer Science,2025-06-15,alice@foo.edu")
	_, err := f.service.BulkUpload(context.Background(), 999, "roster.csv", strings.NewReader(data))
	assert.ErrorIs(t, err, ErrUniversityNotFound)
}
