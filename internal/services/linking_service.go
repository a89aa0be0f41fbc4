package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/diploma-service/internal/email"
	"github.com/SAP-F-2025/diploma-service/internal/events"
	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/repositories"
)

type linkingService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	publisher events.EventPublisher
	mailer    email.Mailer
}

func NewLinkingService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, publisher events.EventPublisher, mailer email.Mailer) LinkingService {
	return &linkingService{
		repo:      repo,
		db:        db,
		logger:    logger,
		publisher: publisher,
		mailer:    mailer,
	}
}

// ResolveOnVerify binds at most one claimable degree to the freshly
// verified account. When several submitted records share the email, the
// earliest created record wins, with id as the final tie-break. It runs
// inside the caller's transaction so verification and linking commit
// together. No match is the common case and returns nil without error.
func (s *linkingService) ResolveOnVerify(ctx context.Context, tx *gorm.DB, user *models.User) (*models.Degree, error) {
	if user.UniversityID == nil {
		return nil, nil
	}

	normalized := models.NormalizeEmail(user.Email)
	degree, err := s.repo.Degree().GetClaimable(ctx, tx, *user.UniversityID, normalized)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query claimable degree: %w", err)
	}

	degree.UserID = &user.ID
	degree.Status = models.DegreeLinked
	if err := s.repo.Degree().Update(ctx, tx, degree); err != nil {
		return nil, fmt.Errorf("failed to link degree %d: %w", degree.ID, err)
	}

	s.logger.InfoContext(ctx, "Linked degree to verified account",
		"degree_id", degree.ID,
		"user_id", user.ID,
		"university_id", *user.UniversityID)

	s.notifyLinked(ctx, degree, user)
	s.publishLinked(ctx, degree, user.ID)
	return degree, nil
}

// notifyLinked tells the student their degree is visible. Delivery failure
// never fails the linking itself.
func (s *linkingService) notifyLinked(ctx context.Context, degree *models.Degree, user *models.User) {
	if s.mailer == nil {
		return
	}
	body := fmt.Sprintf("<p>Your %s in %s has been linked to your account and is now visible.</p>",
		degree.DegreeType, degree.Major)
	if err := s.mailer.SendEmail(user.Email, "Your degree is now available", body); err != nil {
		s.logger.ErrorContext(ctx, "Failed to send linking notification",
			"error", err,
			"degree_id", degree.ID)
	}
}

func (s *linkingService) publishLinked(ctx context.Context, degree *models.Degree, userID uint) {
	if s.publisher == nil {
		return
	}
	event := events.NewEvent(events.EventDegreeLinked, &events.DegreeLinkedEvent{
		DegreeID:     degree.ID,
		UniversityID: degree.UniversityID,
		UserID:       userID,
		StudentEmail: degree.StudentEmail,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish linked event",
			"error", err,
			"degree_id", degree.ID)
	}
}

// ListClaimable shows a student which submitted degrees are waiting for
// their account. Unverified accounts see an empty list.
func (s *linkingService) ListClaimable(ctx context.Context, user *models.User) ([]*DegreeResponse, error) {
	if user.UniversityID == nil || !user.IsVerified {
		return []*DegreeResponse{}, nil
	}

	degrees, err := s.repo.Degree().ListClaimable(ctx, nil, *user.UniversityID, models.NormalizeEmail(user.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to list claimable degrees: %w", err)
	}
	return degreesToResponses(degrees), nil
}

func (s *linkingService) ListLinked(ctx context.Context, userID uint) ([]*DegreeResponse, error) {
	degrees, err := s.repo.Degree().ListByOwner(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked degrees: %w", err)
	}
	return degreesToResponses(degrees), nil
}
