package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/diploma-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type DegreeFilters struct {
	Status    *models.DegreeStatus `json:"status"`
	Major     *string              `json:"major"`
	DateFrom  *time.Time           `json:"date_from"`
	DateTo    *time.Time           `json:"date_to"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`    // "created_at", "graduation_date", "student_email"
	SortOrder string               `json:"sort_order"` // "asc", "desc"
}

// IsUnfilteredFirstPage reports whether the filters describe the default
// first page with no narrowing, the only list shape worth caching.
func (f DegreeFilters) IsUnfilteredFirstPage() bool {
	return f.Status == nil && f.Major == nil &&
		f.DateFrom == nil && f.DateTo == nil &&
		f.Offset == 0 && f.SortBy == "" && f.SortOrder == ""
}

// ===== REPOSITORY INTERFACES =====

// DegreeRepository persists degree records. Every method takes the
// transaction handle it must run under; callers pass nil outside a
// transaction and implementations fall back to their base connection.
type DegreeRepository interface {
	Create(ctx context.Context, tx *gorm.DB, degree *models.Degree) error

	// CreateBatch inserts all staged records in one bulk insert. The bulk
	// ingestion engine only calls this after the whole batch validated.
	CreateBatch(ctx context.Context, tx *gorm.DB, degrees []*models.Degree) error

	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Degree, error)

	// GetByIDScoped hides cross-tenant records: an id owned by another
	// university reports as not found.
	GetByIDScoped(ctx context.Context, tx *gorm.DB, id, universityID uint) (*models.Degree, error)

	// GetByIDsScoped returns every record in ids owned by universityID.
	// Callers compare result length against the id set to detect unknown
	// or foreign ids.
	GetByIDsScoped(ctx context.Context, tx *gorm.DB, ids []uint, universityID uint) ([]*models.Degree, error)

	List(ctx context.Context, tx *gorm.DB, universityID uint, filters DegreeFilters) ([]*models.Degree, int64, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) ([]*models.Degree, error)

	// ListClaimable returns submitted, unlinked records matching the
	// normalized email within a university.
	ListClaimable(ctx context.Context, tx *gorm.DB, universityID uint, email string) ([]*models.Degree, error)

	// GetClaimable returns the single record the linking resolver binds:
	// submitted, unlinked, matching email, earliest created_at first with
	// id as the final tie-break.
	GetClaimable(ctx context.Context, tx *gorm.DB, universityID uint, email string) (*models.Degree, error)

	Update(ctx context.Context, tx *gorm.DB, degree *models.Degree) error

	// UpdateStatusBatch moves every id currently in status `from` to `to`
	// and returns the number of rows changed, letting the caller detect a
	// batch that raced past its precondition check.
	UpdateStatusBatch(ctx context.Context, tx *gorm.DB, ids []uint, universityID uint, from, to models.DegreeStatus) (int64, error)

	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	CountByStatus(ctx context.Context, tx *gorm.DB, universityID uint, status models.DegreeStatus) (int64, error)
}

type UniversityRepository interface {
	Create(ctx context.Context, tx *gorm.DB, university *models.University) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.University, error)
	GetVerifiedByID(ctx context.Context, tx *gorm.DB, id uint) (*models.University, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.University, error)
	GetByDomain(ctx context.Context, tx *gorm.DB, domain string) (*models.University, error)
	ListVerified(ctx context.Context, tx *gorm.DB) ([]*models.University, error)
	Update(ctx context.Context, tx *gorm.DB, university *models.University) error
}

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	ListAdminsByUniversity(ctx context.Context, tx *gorm.DB, universityID uint) ([]*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
}

// TokenRepository handles both ephemeral token kinds. Get methods only
// return unexpired tokens; consumed tokens are deleted on first valid use.
type TokenRepository interface {
	CreateVerification(ctx context.Context, tx *gorm.DB, token *models.VerificationToken) error
	GetValidVerification(ctx context.Context, tx *gorm.DB, token string) (*models.VerificationToken, error)
	DeleteVerification(ctx context.Context, tx *gorm.DB, id uint) error

	CreateInvitation(ctx context.Context, tx *gorm.DB, token *models.InvitationToken) error
	GetValidInvitation(ctx context.Context, tx *gorm.DB, token string) (*models.InvitationToken, error)
	DeleteInvitation(ctx context.Context, tx *gorm.DB, id uint) error

	// DeleteExpired clears tokens past their expiry; wired to a periodic
	// sweep at startup.
	DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
}

type TemplateRepository interface {
	Create(ctx context.Context, tx *gorm.DB, template *models.Template) error
	GetByIDScoped(ctx context.Context, tx *gorm.DB, id, universityID uint) (*models.Template, error)
	ListByUniversity(ctx context.Context, tx *gorm.DB, universityID uint) ([]*models.Template, error)
	Update(ctx context.Context, tx *gorm.DB, template *models.Template) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}
