package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/repositories"
	"github.com/SAP-F-2025/diploma-service/internal/validator"
)

type accountService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	linking   LinkingService
	deps      Dependencies
}

func NewAccountService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, linking LinkingService, deps Dependencies) AccountService {
	return &accountService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		linking:   linking,
		deps:      deps,
	}
}

func (s *accountService) RegisterStudent(ctx context.Context, req *validator.RegisterStudentRequest) (*UserResponse, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	university, err := s.repo.University().GetVerifiedByID(ctx, nil, req.UniversityID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUniversityNotFound
		}
		return nil, fmt.Errorf("failed to load university: %w", err)
	}

	normalized := models.NormalizeEmail(req.Email)
	if !validator.ValidateDomainMatch(normalized, university.Domain) {
		return nil, NewDomainMismatchError(normalized, university.Domain)
	}

	if err := s.ensureEmailFree(ctx, normalized); err != nil {
		return nil, err
	}

	passwordHash, err := s.deps.Hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        normalized,
		PasswordHash: passwordHash,
		Role:         models.RoleStudent,
		UniversityID: &university.ID,
	}

	var token string
	err = runInTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.repo.User().Create(ctx, tx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		token, err = generateToken()
		if err != nil {
			return err
		}
		verification := &models.VerificationToken{
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: time.Now().Add(s.deps.VerificationTTL),
		}
		if err := s.repo.Token().CreateVerification(ctx, tx, verification); err != nil {
			return fmt.Errorf("failed to create verification token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendVerificationEmail(ctx, user.Email, token)

	s.logger.InfoContext(ctx, "Student registered",
		"user_id", user.ID,
		"university_id", university.ID)

	return userToResponse(user), nil
}

// ConfirmEmail consumes the token, marks the account verified and runs the
// deferred linking check in the same transaction.
func (s *accountService) ConfirmEmail(ctx context.Context, token string) (*ConfirmEmailResponse, error) {
	var user *models.User
	var linked *models.Degree

	err := runInTx(ctx, s.db, func(tx *gorm.DB) error {
		verification, err := s.repo.Token().GetValidVerification(ctx, tx, token)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrTokenInvalid
			}
			return fmt.Errorf("failed to look up token: %w", err)
		}

		user, err = s.repo.User().GetByID(ctx, tx, verification.UserID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return err
		}

		if !user.IsVerified {
			user.IsVerified = true
			if err := s.repo.User().Update(ctx, tx, user); err != nil {
				return fmt.Errorf("failed to mark user verified: %w", err)
			}
		}

		// Single use: the token is gone whether or not linking finds anything.
		if err := s.repo.Token().DeleteVerification(ctx, tx, verification.ID); err != nil {
			return fmt.Errorf("failed to consume token: %w", err)
		}

		linked, err = s.linking.ResolveOnVerify(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := &ConfirmEmailResponse{User: userToResponse(user)}
	if linked != nil {
		resp.LinkedDegreeID = &linked.ID
	}
	return resp, nil
}

func (s *accountService) RegisterUniversityAdmin(ctx context.Context, req *validator.RegisterUniversityAdminRequest) (*UserResponse, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	passwordHash, err := s.deps.Hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user *models.User
	err = runInTx(ctx, s.db, func(tx *gorm.DB) error {
		invitation, err := s.repo.Token().GetValidInvitation(ctx, tx, req.Token)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrTokenInvalid
			}
			return fmt.Errorf("failed to look up invitation: %w", err)
		}

		normalized := models.NormalizeEmail(invitation.Email)
		if err := s.ensureEmailFree(ctx, normalized); err != nil {
			return err
		}

		// The invitation itself was delivered to this address, so the
		// account starts verified.
		user = &models.User{
			Email:        normalized,
			PasswordHash: passwordHash,
			Role:         models.RoleUniversityAdmin,
			UniversityID: &invitation.UniversityID,
			IsVerified:   true,
		}
		if err := s.repo.User().Create(ctx, tx, user); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		if err := s.repo.Token().DeleteInvitation(ctx, tx, invitation.ID); err != nil {
			return fmt.Errorf("failed to consume invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "University admin registered",
		"user_id", user.ID,
		"university_id", *user.UniversityID)

	return userToResponse(user), nil
}

func (s *accountService) Login(ctx context.Context, req *validator.LoginRequest) (*LoginResponse, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, errs
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, models.NormalizeEmail(req.Email))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.deps.Hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.deps.TokenTTL)
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}
	if user.UniversityID != nil {
		claims["university_id"] = *user.UniversityID
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.deps.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      userToResponse(user),
	}, nil
}

func (s *accountService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.repo.User().GetByEmail(ctx, nil, email)
	if err == nil {
		return ErrEmailInUse
	}
	if repositories.IsNotFoundError(err) {
		return nil
	}
	return fmt.Errorf("failed to check email: %w", err)
}

// sendVerificationEmail delivers the confirmation link. Failures are
// logged; the registration itself already committed.
func (s *accountService) sendVerificationEmail(ctx context.Context, to, token string) {
	if s.deps.Mailer == nil {
		return
	}
	link := fmt.Sprintf("%s/verify?token=%s", s.deps.FrontendURL, token)
	body := fmt.Sprintf("<p>Confirm your email address by following <a href=%q>this link</a>. The link expires in %s.</p>",
		link, s.deps.VerificationTTL)
	if err := s.deps.Mailer.SendEmail(to, "Confirm your email", body); err != nil {
		s.logger.ErrorContext(ctx, "Failed to send verification email", "error", err)
	}
}
