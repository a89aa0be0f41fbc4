package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/diploma-service/internal/events"
	"github.com/SAP-F-2025/diploma-service/internal/ingest"
	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/repositories"
	"github.com/SAP-F-2025/diploma-service/internal/validator"
)

type ingestService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewIngestService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) IngestService {
	return &ingestService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

func (s *ingestService) BulkUpload(ctx context.Context, universityID uint, filename string, r io.Reader) (*BulkUploadResponse, error) {
	s.logger.InfoContext(ctx, "Starting bulk upload", "university_id", universityID, "filename", filename)

	university, err := s.repo.University().GetVerifiedByID(ctx, nil, universityID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUniversityNotFound
		}
		return nil, fmt.Errorf("failed to load university: %w", err)
	}

	rows, err := ingest.ParseRoster(filename, r)
	if err != nil {
		return nil, &BatchValidationError{Rows: []RowError{{Row: 1, Reason: err.Error()}}}
	}
	if len(rows) == 0 {
		return nil, &BatchValidationError{Rows: []RowError{{Row: 1, Reason: "file contains no data rows"}}}
	}

	degrees, rowErrors := s.validateRows(rows, university)
	if len(rowErrors) > 0 {
		s.logger.WarnContext(ctx, "Bulk upload rejected",
			"university_id", universityID,
			"row_errors", len(rowErrors))
		return nil, &BatchValidationError{Rows: rowErrors}
	}

	err = runInTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.repo.Degree().CreateBatch(ctx, tx, degrees); err != nil {
			return fmt.Errorf("failed to insert batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(degrees))
	for i, d := range degrees {
		ids[i] = d.ID
	}

	if s.publisher != nil {
		event := events.NewEvent(events.EventBatchIngested, &events.BatchIngestedEvent{
			UniversityID: universityID,
			RecordCount:  len(degrees),
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish batch event", "error", err)
		}
	}

	s.logger.InfoContext(ctx, "Bulk upload committed",
		"university_id", universityID,
		"created", len(degrees))

	return &BulkUploadResponse{Created: len(degrees), DegreeIDs: ids}, nil
}

// validateRows checks every row and collects every failure so the response
// describes the whole file, not just the first bad line.
func (s *ingestService) validateRows(rows []ingest.RosterRow, university *models.University) ([]*models.Degree, []RowError) {
	bv := s.validator.GetBusinessValidator()

	var rowErrors []RowError
	degrees := make([]*models.Degree, 0, len(rows))
	seen := make(map[string]int, len(rows))

	for _, row := range rows {
		if errs := bv.ValidateDegreeSubmission(row.DegreeType, row.Major, row.GraduationDate, row.StudentEmail); len(errs) > 0 {
			for _, ve := range errs {
				rowErrors = append(rowErrors, RowError{Row: row.Line, Reason: fmt.Sprintf("%s %s", ve.Field, ve.Message)})
			}
			continue
		}

		email := models.NormalizeEmail(row.StudentEmail)

		if !validator.ValidateDomainMatch(email, university.Domain) {
			rowErrors = append(rowErrors, RowError{
				Row:    row.Line,
				Reason: fmt.Sprintf("student_email domain does not match university domain %s", university.Domain),
			})
			continue
		}

		if firstLine, dup := seen[email]; dup {
			rowErrors = append(rowErrors, RowError{
				Row:    row.Line,
				Reason: fmt.Sprintf("duplicate student_email, first seen on row %d", firstLine),
			})
			continue
		}
		seen[email] = row.Line

		gradDate, _ := time.Parse(validator.GraduationDateLayout, row.GraduationDate)
		degrees = append(degrees, &models.Degree{
			UniversityID:   university.ID,
			StudentEmail:   email,
			DegreeType:     row.DegreeType,
			Major:          row.Major,
			GraduationDate: datatypes.Date(gradDate),
			Status:         models.DegreeDraft,
		})
	}

	return degrees, rowErrors
}
