package services

import (
	"bytes"
	"context"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/diploma-service/internal/email"
	"github.com/SAP-F-2025/diploma-service/internal/events"
	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/repositories"
	"github.com/SAP-F-2025/diploma-service/internal/validator"
	"github.com/SAP-F-2025/diploma-service/pkg"
)

// ===== RESPONSE DTOS =====

type DegreeResponse struct {
	ID             uint                `json:"id"`
	UniversityID   uint                `json:"university_id"`
	UserID         *uint               `json:"user_id,omitempty"`
	StudentEmail   string              `json:"student_email"`
	DegreeType     string              `json:"degree_type"`
	Major          string              `json:"major"`
	GraduationDate string              `json:"graduation_date"`
	Status         models.DegreeStatus `json:"status"`
	UniversityName string              `json:"university_name,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

type DegreeListResponse struct {
	Degrees []*DegreeResponse `json:"degrees"`
	Total   int64             `json:"total"`
	Limit   int               `json:"limit"`
	Offset  int               `json:"offset"`
}

// BulkUploadResponse reports a committed roster upload. A partially valid
// file never produces one of these; the whole batch commits or none of it.
type BulkUploadResponse struct {
	Created   int    `json:"created"`
	DegreeIDs []uint `json:"degree_ids"`
}

// BatchStatusResponse reports a committed batch status transition.
type BatchStatusResponse struct {
	Updated int                 `json:"updated"`
	Status  models.DegreeStatus `json:"status"`
}

type UniversityResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Domain      string    `json:"domain"`
	IsVerified  bool      `json:"is_verified"`
	AdminEmails []string  `json:"admin_emails,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type UserResponse struct {
	ID           uint            `json:"id"`
	Email        string          `json:"email"`
	Role         models.UserRole `json:"role"`
	UniversityID *uint           `json:"university_id,omitempty"`
	IsVerified   bool            `json:"is_verified"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ConfirmEmailResponse reports email verification plus the outcome of the
// deferred linking check that runs with it.
type ConfirmEmailResponse struct {
	User           *UserResponse `json:"user"`
	LinkedDegreeID *uint         `json:"linked_degree_id,omitempty"`
}

type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *UserResponse `json:"user"`
}

type TemplateResponse struct {
	ID           uint      `json:"id"`
	UniversityID uint      `json:"university_id"`
	TemplateName string    `json:"template_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// ===== SERVICE INTERFACES =====

// DegreeService owns the lifecycle of degree records within one university:
// single uploads, draft edits, and the two-step batch confirmation flow.
type DegreeService interface {
	Upload(ctx context.Context, universityID uint, req *validator.DegreeCreateRequest) (*DegreeResponse, error)

	// AttachCredential stores the credential document for a draft and
	// records its path, replacing any earlier attachment.
	AttachCredential(ctx context.Context, universityID, id uint, filename string, file io.Reader) (*DegreeResponse, error)

	GetByID(ctx context.Context, universityID, id uint) (*DegreeResponse, error)
	List(ctx context.Context, universityID uint, filters repositories.DegreeFilters) (*DegreeListResponse, error)
	UpdateDraft(ctx context.Context, universityID, id uint, req *validator.DegreeUpdateRequest) (*DegreeResponse, error)
	DeleteDraft(ctx context.Context, universityID, id uint) error

	// ConfirmBatch advances every listed record through one confirmation
	// step. All records must currently hold the step's required status or
	// the whole batch is rejected.
	ConfirmBatch(ctx context.Context, universityID uint, req *validator.ConfirmDegreesRequest) (*BatchStatusResponse, error)

	// RevertBatch cancels a first-step acknowledgment, returning every
	// listed record from pending_confirmation to draft.
	RevertBatch(ctx context.Context, universityID uint, req *validator.RevertDegreesRequest) (*BatchStatusResponse, error)

	ExportRoster(ctx context.Context, universityID uint, filters repositories.DegreeFilters) (*bytes.Buffer, error)
}

// IngestService handles bulk roster uploads.
type IngestService interface {
	// BulkUpload parses, validates and stages a roster file in one
	// transaction. Any row failure rejects the entire file.
	BulkUpload(ctx context.Context, universityID uint, filename string, r io.Reader) (*BulkUploadResponse, error)
}

// LinkingService resolves submitted degrees to verified student accounts
// and answers student-facing queries.
type LinkingService interface {
	// ResolveOnVerify links at most one claimable degree for the user's
	// email at their university, picking the earliest created record when
	// several match. Finding nothing is a normal outcome, not an error.
	ResolveOnVerify(ctx context.Context, tx *gorm.DB, user *models.User) (*models.Degree, error)

	ListClaimable(ctx context.Context, user *models.User) ([]*DegreeResponse, error)
	ListLinked(ctx context.Context, userID uint) ([]*DegreeResponse, error)
}

// AccountService owns registration, email verification and login.
type AccountService interface {
	RegisterStudent(ctx context.Context, req *validator.RegisterStudentRequest) (*UserResponse, error)

	// ConfirmEmail consumes a verification token, marks the account
	// verified and runs deferred degree linking.
	ConfirmEmail(ctx context.Context, token string) (*ConfirmEmailResponse, error)

	RegisterUniversityAdmin(ctx context.Context, req *validator.RegisterUniversityAdminRequest) (*UserResponse, error)
	Login(ctx context.Context, req *validator.LoginRequest) (*LoginResponse, error)
}

// UniversityService owns university onboarding and admin invitations.
type UniversityService interface {
	Register(ctx context.Context, req *validator.RegisterUniversityRequest) (*UniversityResponse, error)
	GetByID(ctx context.Context, id uint) (*UniversityResponse, error)
	ListVerified(ctx context.Context) ([]*UniversityResponse, error)
	InviteAdmin(ctx context.Context, req *validator.InviteUniversityAdminRequest) error
}

// TemplateService manages certificate templates per university.
type TemplateService interface {
	Create(ctx context.Context, universityID uint, req *validator.TemplateUpsertRequest, filename string, file io.Reader) (*TemplateResponse, error)
	List(ctx context.Context, universityID uint) ([]*TemplateResponse, error)
	// Update renames a template and, when file is non-nil, replaces its
	// stored document.
	Update(ctx context.Context, universityID, id uint, req *validator.TemplateUpsertRequest, filename string, file io.Reader) (*TemplateResponse, error)
	Delete(ctx context.Context, universityID, id uint) error
}

// ===== DEPENDENCIES =====

// Dependencies bundles the external collaborators services need beyond the
// repository and database handles.
type Dependencies struct {
	Mailer email.Mailer
	Events events.EventPublisher
	Files  pkg.FileStore
	Hasher pkg.PasswordHasher

	JWTSecret       string
	TokenTTL        time.Duration
	VerificationTTL time.Duration
	InvitationTTL   time.Duration
	FrontendURL     string
}

// ServiceManager wires and exposes all services.
type ServiceManager interface {
	Degree() DegreeService
	Ingest() IngestService
	Linking() LinkingService
	Account() AccountService
	University() UniversityService
	Template() TemplateService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
