package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/repositories"
	"github.com/SAP-F-2025/diploma-service/internal/validator"
)

type universityService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	deps      Dependencies
}

func NewUniversityService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, deps Dependencies) UniversityService {
	return &universityService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		deps:      deps,
	}
}

func (s *universityService) Register(ctx context.Context, req *validator.RegisterUniversityRequest) (*UniversityResponse, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	domain := models.NormalizeEmail(req.Domain)

	if _, err := s.repo.University().GetByDomain(ctx, nil, domain); err == nil {
		return nil, validator.ValidationErrors{{
			Field:   "domain",
			Message: "is already registered",
			Value:   domain,
			Rule:    "unique",
		}}
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check domain: %w", err)
	}

	university := &models.University{
		Name:                 req.Name,
		Domain:               domain,
		AccreditationDetails: req.AccreditationDetails,
		IsVerified:           true, // registered by the platform admin directly
	}

	if err := s.repo.University().Create(ctx, nil, university); err != nil {
		return nil, fmt.Errorf("failed to create university: %w", err)
	}

	s.logger.InfoContext(ctx, "University registered",
		"university_id", university.ID,
		"domain", university.Domain)

	return universityToResponse(university), nil
}

func (s *universityService) GetByID(ctx context.Context, id uint) (*UniversityResponse, error) {
	university, err := s.repo.University().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUniversityNotFound
		}
		return nil, fmt.Errorf("failed to load university: %w", err)
	}
	return universityToResponse(university), nil
}

func (s *universityService) ListVerified(ctx context.Context) ([]*UniversityResponse, error) {
	universities, err := s.repo.University().ListVerified(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list universities: %w", err)
	}

	out := make([]*UniversityResponse, len(universities))
	for i, u := range universities {
		resp := universityToResponse(u)
		admins, err := s.repo.User().ListAdminsByUniversity(ctx, nil, u.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list admins for university %d: %w", u.ID, err)
		}
		for _, admin := range admins {
			resp.AdminEmails = append(resp.AdminEmails, admin.Email)
		}
		out[i] = resp
	}
	return out, nil
}

func (s *universityService) InviteAdmin(ctx context.Context, req *validator.InviteUniversityAdminRequest) error {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return errs
	}

	university, err := s.repo.University().GetVerifiedByID(ctx, nil, req.UniversityID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUniversityNotFound
		}
		return fmt.Errorf("failed to load university: %w", err)
	}

	token, err := generateToken()
	if err != nil {
		return err
	}

	invitation := &models.InvitationToken{
		UniversityID: university.ID,
		Email:        models.NormalizeEmail(req.Email),
		Token:        token,
		ExpiresAt:    time.Now().Add(s.deps.InvitationTTL),
	}
	if err := s.repo.Token().CreateInvitation(ctx, nil, invitation); err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	s.sendInvitationEmail(ctx, invitation.Email, university.Name, token)

	s.logger.InfoContext(ctx, "Admin invitation issued",
		"university_id", university.ID,
		"email", invitation.Email)
	return nil
}

func (s *universityService) sendInvitationEmail(ctx context.Context, to, universityName, token string) {
	if s.deps.Mailer == nil {
		return
	}
	link := fmt.Sprintf("%s/admin/register?token=%s", s.deps.FrontendURL, token)
	body := fmt.Sprintf("<p>You have been invited to administer %s. Complete your registration via <a href=%q>this link</a>. The invitation expires in %s.</p>",
		universityName, link, s.deps.InvitationTTL)
	if err := s.deps.Mailer.SendEmail(to, "Administrator invitation", body); err != nil {
		s.logger.ErrorContext(ctx, "Failed to send invitation email", "error", err)
	}
}
