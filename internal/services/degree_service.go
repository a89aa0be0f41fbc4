package services

import (
	"bytes"
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
	"github.com/SAP-F-2025/diploma-service/pkg"
)

type degreeService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	files     pkg.FileStore
}

func NewDegreeService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher, files pkg.FileStore) DegreeService {
	return &degreeService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		publisher: publisher,
		files:     files,
	}
}

// ===== SINGLE RECORD OPERATIONS =====

func (s *degreeService) Upload(ctx context.Context, universityID uint, req *validator.DegreeCreateRequest) (*DegreeResponse, error) {
	s.logger.InfoContext(ctx, "Uploading degree record", "university_id", universityID, "student_email", req.StudentEmail)

	if errs := s.validator.GetBusinessValidator().ValidateDegreeSubmission(req.DegreeType, req.Major, req.GraduationDate, req.StudentEmail); len(errs) > 0 {
		return nil, errs
	}

	university, err := s.getVerifiedUniversity(ctx, universityID)
	if err != nil {
		return nil, err
	}

	email := models.NormalizeEmail(req.StudentEmail)
	if !validator.ValidateDomainMatch(email, university.Domain) {
		return nil, NewDomainMismatchError(email, university.Domain)
	}

	gradDate, err := time.Parse(validator.GraduationDateLayout, req.GraduationDate)
	if err != nil {
		return nil, validator.ValidationErrors{{
			Field:   "graduation_date",
			Message: fmt.Sprintf("must be a date in %s format", validator.GraduationDateLayout),
			Value:   req.GraduationDate,
			Rule:    "date",
		}}
	}

	degree := &models.Degree{
		UniversityID:   universityID,
		StudentEmail:   email,
		DegreeType:     req.DegreeType,
		Major:          req.Major,
		GraduationDate: datatypes.Date(gradDate),
		Status:         models.DegreeDraft,
	}

	if err := s.repo.Degree().Create(ctx, nil, degree); err != nil {
		return nil, fmt.Errorf("failed to create degree: %w", err)
	}

	s.logger.InfoContext(ctx, "Degree record created", "degree_id", degree.ID, "university_id", universityID)
	return degreeToResponse(degree), nil
}

// AttachCredential stores the credential document for a draft record,
// replacing any previously attached file.
func (s *degreeService) AttachCredential(ctx context.Context, universityID, id uint, filename string, file io.Reader) (*DegreeResponse, error) {
	path, err := s.files.Save("credentials", filename, file)
	if err != nil {
		return nil, fmt.Errorf("failed to store credential file: %w", err)
	}

	var degree *models.Degree
	var previous *string
	err = runInTx(ctx, s.db, func(tx *gorm.DB) error {
		degree, err = s.repo.Degree().GetByIDScoped(ctx, tx, id, universityID)
		if err != nil {
			return mapDegreeError(err)
		}

		if !degree.Status.IsMutable() {
			return NewStateConflictError(degree.ID, degree.Status, models.DegreeDraft, "attach")
		}

		previous = degree.FilePath
		degree.FilePath = &path
		if err := s.repo.Degree().Update(ctx, tx, degree); err != nil {
			return fmt.Errorf("failed to update degree: %w", err)
		}
		return nil
	})
	if err != nil {
		if rmErr := s.files.Remove(path); rmErr != nil {
			s.logger.WarnContext(ctx, "Failed to remove orphaned credential file",
				"error", rmErr,
				"path", path)
		}
		return nil, err
	}

	if previous != nil {
		if err := s.files.Remove(*previous); err != nil {
			s.logger.WarnContext(ctx, "Failed to remove replaced credential file",
				"error", err,
				"path", *previous)
		}
	}

	s.logger.InfoContext(ctx, "Credential file attached", "degree_id", id, "university_id", universityID)
	return degreeToResponse(degree), nil
}

func (s *degreeService) GetByID(ctx context.Context, universityID, id uint) (*DegreeResponse, error) {
	degree, err := s.repo.Degree().GetByIDScoped(ctx, nil, id, universityID)
	if err != nil {
		return nil, mapDegreeError(err)
	}
	return degreeToResponse(degree), nil
}

func (s *degreeService) List(ctx context.Context, universityID uint, filters repositories.DegreeFilters) (*DegreeListResponse, error) {
	degrees, total, err := s.repo.Degree().List(ctx, nil, universityID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list degrees: %w", err)
	}

	return &DegreeListResponse{
		Degrees: degreesToResponses(degrees),
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}, nil
}

func (s *degreeService) UpdateDraft(ctx context.Context, universityID, id uint, req *validator.DegreeUpdateRequest) (*DegreeResponse, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	var degree *models.Degree
	err := runInTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		degree, err = s.repo.Degree().GetByIDScoped(ctx, tx, id, universityID)
		if err != nil {
			return mapDegreeError(err)
		}

		if !degree.Status.IsMutable() {
			return NewStateConflictError(degree.ID, degree.Status, models.DegreeDraft, "update")
		}

		if err := s.applyDraftUpdate(ctx, tx, degree, req); err != nil {
			return err
		}

		if err := s.repo.Degree().Update(ctx, tx, degree); err != nil {
			return fmt.Errorf("failed to update degree: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Draft degree updated", "degree_id", id, "university_id", universityID)
	return degreeToResponse(degree), nil
}

func (s *degreeService) applyDraftUpdate(ctx context.Context, tx *gorm.DB, degree *models.Degree, req *validator.DegreeUpdateRequest) error {
	if req.DegreeType != nil {
		degree.DegreeType = *req.DegreeType
	}
	if req.Major != nil {
		degree.Major = *req.Major
	}
	if req.GraduationDate != nil {
		gradDate, err := time.Parse(validator.GraduationDateLayout, *req.GraduationDate)
		if err != nil {
			return validator.ValidationErrors{{
				Field:   "graduation_date",
				Message: fmt.Sprintf("must be a date in %s format", validator.GraduationDateLayout),
				Value:   *req.GraduationDate,
				Rule:    "date",
			}}
		}
		degree.GraduationDate = datatypes.Date(gradDate)
	}
	if req.StudentEmail != nil {
		email := models.NormalizeEmail(*req.StudentEmail)
		university, err := s.repo.University().GetByID(ctx, tx, degree.UniversityID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUniversityNotFound
			}
			return err
		}
		if !validator.ValidateDomainMatch(email, university.Domain) {
			return NewDomainMismatchError(email, university.Domain)
		}
		degree.StudentEmail = email
	}
	return nil
}

func (s *degreeService) DeleteDraft(ctx context.Context, universityID, id uint) error {
	var filePath *string
	err := runInTx(ctx, s.db, func(tx *gorm.DB) error {
		degree, err := s.repo.Degree().GetByIDScoped(ctx, tx, id, universityID)
		if err != nil {
			return mapDegreeError(err)
		}

		if !degree.Status.IsMutable() {
			return NewStateConflictError(degree.ID, degree.Status, models.DegreeDraft, "delete")
		}

		filePath = degree.FilePath
		if err := s.repo.Degree().Delete(ctx, tx, id); err != nil {
			return mapDegreeError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if filePath != nil {
		if err := s.files.Remove(*filePath); err != nil {
			s.logger.WarnContext(ctx, "Failed to remove credential file",
				"error", err,
				"path", *filePath)
		}
	}

	s.logger.InfoContext(ctx, "Draft degree deleted", "degree_id", id, "university_id", universityID)
	return nil
}

// ===== BATCH CONFIRMATION =====

func (s *degreeService) ConfirmBatch(ctx context.Context, universityID uint, req *validator.ConfirmDegreesRequest) (*BatchStatusResponse, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	from, to, err := models.ConfirmTransition(req.ConfirmationStep)
	if err != nil {
		return nil, ErrInvalidConfirmationStep
	}

	op := "confirm"
	if req.ConfirmationStep == models.ConfirmStepFinal {
		op = "submit"
	}

	submitted, err := s.transitionBatch(ctx, universityID, req.DegreeIDs, from, to, op)
	if err != nil {
		return nil, err
	}

	if to == models.DegreeSubmitted {
		s.publishSubmitted(ctx, submitted)
	}

	s.logger.InfoContext(ctx, "Degree batch confirmed",
		"university_id", universityID,
		"step", req.ConfirmationStep,
		"count", len(submitted))

	return &BatchStatusResponse{Updated: len(submitted), Status: to}, nil
}

func (s *degreeService) RevertBatch(ctx context.Context, universityID uint, req *validator.RevertDegreesRequest) (*BatchStatusResponse, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	from, to := models.RevertTransition()
	reverted, err := s.transitionBatch(ctx, universityID, req.DegreeIDs, from, to, "revert")
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Degree batch reverted",
		"university_id", universityID,
		"count", len(reverted))

	return &BatchStatusResponse{Updated: len(reverted), Status: to}, nil
}

// transitionBatch moves every id from one status to the next atomically.
// Any unknown or foreign id, or any record outside the expected status,
// rejects the whole batch. Returns the records as loaded before the update.
func (s *degreeService) transitionBatch(ctx context.Context, universityID uint, ids []uint, from, to models.DegreeStatus, op string) ([]*models.Degree, error) {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return nil, ErrEmptyBatch
	}

	var loaded []*models.Degree
	err := runInTx(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		loaded, err = s.repo.Degree().GetByIDsScoped(ctx, tx, ids, universityID)
		if err != nil {
			return fmt.Errorf("failed to load batch: %w", err)
		}
		if len(loaded) != len(ids) {
			return ErrDegreeNotFound
		}

		for _, degree := range loaded {
			if degree.Status != from {
				return NewStateConflictError(degree.ID, degree.Status, from, op)
			}
		}

		affected, err := s.repo.Degree().UpdateStatusBatch(ctx, tx, ids, universityID, from, to)
		if err != nil {
			return fmt.Errorf("failed to update batch status: %w", err)
		}
		if affected != int64(len(ids)) {
			// A concurrent writer moved part of the batch between the
			// precondition check and the update; abort so nothing commits.
			return NewStateConflictError(0, "", from, op)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

func (s *degreeService) publishSubmitted(ctx context.Context, degrees []*models.Degree) {
	if s.publisher == nil {
		return
	}
	for _, degree := range degrees {
		event := events.NewEvent(events.EventDegreeSubmitted, &events.DegreeSubmittedEvent{
			DegreeID:     degree.ID,
			UniversityID: degree.UniversityID,
			StudentEmail: degree.StudentEmail,
			DegreeType:   degree.DegreeType,
			Major:        degree.Major,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish submitted event",
				"error", err,
				"degree_id", degree.ID)
		}
	}
}

// ===== EXPORT =====

func (s *degreeService) ExportRoster(ctx context.Context, universityID uint, filters repositories.DegreeFilters) (*bytes.Buffer, error) {
	filters.Limit = 0
	filters.Offset = 0

	degrees, _, err := s.repo.Degree().List(ctx, nil, universityID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list degrees for export: %w", err)
	}

	rows := make([]ingest.ExportRow, len(degrees))
	for i, d := range degrees {
		rows[i] = ingest.ExportRow{
			StudentEmail:   d.StudentEmail,
			DegreeType:     d.DegreeType,
			Major:          d.Major,
			GraduationDate: time.Time(d.GraduationDate).Format(validator.GraduationDateLayout),
			Status:         string(d.Status),
		}
	}

	return ingest.BuildRosterXLSX(rows)
}

// ===== SHARED =====

func (s *degreeService) getVerifiedUniversity(ctx context.Context, universityID uint) (*models.University, error) {
	university, err := s.repo.University().GetVerifiedByID(ctx, nil, universityID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUniversityNotFound
		}
		return nil, fmt.Errorf("failed to load university: %w", err)
	}
	return university, nil
}

func dedupeIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
