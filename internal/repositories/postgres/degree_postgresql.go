package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/diploma-service/internal/cache"
	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/repositories"
)

type DegreePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewDegreePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.DegreeRepository {
	return &DegreePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

// Create inserts a new degree record and invalidates list caches.
func (d *DegreePostgreSQL) Create(ctx context.Context, tx *gorm.DB, degree *models.Degree) error {
	if err := d.helpers.getDB(tx).WithContext(ctx).Create(degree).Error; err != nil {
		return fmt.Errorf("failed to create degree: %w", err)
	}
	d.invalidateUniversity(ctx, degree.UniversityID)
	return nil
}

// CreateBatch inserts all staged records in a single bulk insert.
func (d *DegreePostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, degrees []*models.Degree) error {
	if len(degrees) == 0 {
		return nil
	}
	if err := d.helpers.getDB(tx).WithContext(ctx).Create(&degrees).Error; err != nil {
		return fmt.Errorf("failed to bulk insert degrees: %w", err)
	}
	d.invalidateUniversity(ctx, degrees[0].UniversityID)
	return nil
}

func (d *DegreePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Degree, error) {
	var degree models.Degree
	err := d.helpers.getDB(tx).WithContext(ctx).First(&degree, id).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &degree, nil
}

// GetByIDScoped serves reads through the degree cache. Transactional reads
// bypass it so a caller holding a tx never sees a row older than its own
// snapshot.
func (d *DegreePostgreSQL) GetByIDScoped(ctx context.Context, tx *gorm.DB, id, universityID uint) (*models.Degree, error) {
	if tx != nil {
		return d.getByIDScoped(ctx, tx, id, universityID)
	}

	var degree models.Degree
	err := d.cacheManager.Degree.CacheOrExecute(ctx, cache.DegreeRecordKey(universityID, id), &degree, cache.DegreeCacheConfig.TTL, func() (interface{}, error) {
		return d.getByIDScoped(ctx, nil, id, universityID)
	})
	if err != nil {
		return nil, err
	}
	return &degree, nil
}

func (d *DegreePostgreSQL) getByIDScoped(ctx context.Context, tx *gorm.DB, id, universityID uint) (*models.Degree, error) {
	var degree models.Degree
	err := d.helpers.getDB(tx).WithContext(ctx).
		Where("id = ? AND university_id = ?", id, universityID).
		First(&degree).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &degree, nil
}

func (d *DegreePostgreSQL) GetByIDsScoped(ctx context.Context, tx *gorm.DB, ids []uint, universityID uint) ([]*models.Degree, error) {
	var degrees []*models.Degree
	err := d.helpers.getDB(tx).WithContext(ctx).
		Where("id IN ? AND university_id = ?", ids, universityID).
		Find(&degrees).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get degrees by ids: %w", err)
	}
	return degrees, nil
}

// degreePage is the cached shape of a list result.
type degreePage struct {
	Degrees []*models.Degree `json:"degrees"`
	Total   int64            `json:"total"`
}

// List returns a filtered page of a university's degrees plus the unpaged
// total, caching the unfiltered first page which the admin dashboard hits
// constantly.
func (d *DegreePostgreSQL) List(ctx context.Context, tx *gorm.DB, universityID uint, filters repositories.DegreeFilters) ([]*models.Degree, int64, error) {
	if tx != nil || !filters.IsUnfilteredFirstPage() {
		return d.list(ctx, tx, universityID, filters)
	}

	var page degreePage
	err := d.cacheManager.Degree.CacheOrExecute(ctx, cache.DegreeFirstPageKey(universityID, filters.Limit), &page, cache.DegreeCacheConfig.TTL, func() (interface{}, error) {
		degrees, total, err := d.list(ctx, nil, universityID, filters)
		if err != nil {
			return nil, err
		}
		return &degreePage{Degrees: degrees, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page.Degrees, page.Total, nil
}

func (d *DegreePostgreSQL) list(ctx context.Context, tx *gorm.DB, universityID uint, filters repositories.DegreeFilters) ([]*models.Degree, int64, error) {
	var degrees []*models.Degree
	var total int64

	base := d.helpers.getDB(tx).WithContext(ctx).Model(&models.Degree{}).
		Where("university_id = ?", universityID)
	base = d.helpers.ApplyDegreeFilters(base, filters)

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count degrees: %w", err)
	}

	query := d.helpers.ApplyPaginationAndSort(base, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&degrees).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list degrees: %w", err)
	}

	return degrees, total, nil
}

func (d *DegreePostgreSQL) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uint) ([]*models.Degree, error) {
	var degrees []*models.Degree
	err := d.helpers.getDB(tx).WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&degrees).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list degrees by owner: %w", err)
	}
	return degrees, nil
}

func (d *DegreePostgreSQL) ListClaimable(ctx context.Context, tx *gorm.DB, universityID uint, email string) ([]*models.Degree, error) {
	var degrees []*models.Degree
	err := d.helpers.getDB(tx).WithContext(ctx).
		Where("university_id = ? AND student_email = ? AND status = ? AND user_id IS NULL",
			universityID, models.NormalizeEmail(email), models.DegreeSubmitted).
		Order("created_at ASC, id ASC").
		Find(&degrees).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list claimable degrees: %w", err)
	}
	return degrees, nil
}

// GetClaimable picks the one record the linking resolver binds. Ordering by
// created_at then id makes the choice deterministic when several submitted
// records share an email.
func (d *DegreePostgreSQL) GetClaimable(ctx context.Context, tx *gorm.DB, universityID uint, email string) (*models.Degree, error) {
	var degree models.Degree
	err := d.helpers.getDB(tx).WithContext(ctx).
		Where("university_id = ? AND student_email = ? AND status = ? AND user_id IS NULL",
			universityID, models.NormalizeEmail(email), models.DegreeSubmitted).
		Order("created_at ASC, id ASC").
		First(&degree).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &degree, nil
}

func (d *DegreePostgreSQL) Update(ctx context.Context, tx *gorm.DB, degree *models.Degree) error {
	if err := d.helpers.getDB(tx).WithContext(ctx).Save(degree).Error; err != nil {
		return fmt.Errorf("failed to update degree: %w", err)
	}
	cache.InvalidateDegreeCache(ctx, d.cacheManager, degree.ID, degree.UniversityID)
	return nil
}

// UpdateStatusBatch issues one UPDATE guarded by the expected source status
// so a batch that raced past its precondition check changes fewer rows than
// requested, which the caller treats as a conflict.
func (d *DegreePostgreSQL) UpdateStatusBatch(ctx context.Context, tx *gorm.DB, ids []uint, universityID uint, from, to models.DegreeStatus) (int64, error) {
	result := d.helpers.getDB(tx).WithContext(ctx).
		Model(&models.Degree{}).
		Where("id IN ? AND university_id = ? AND status = ?", ids, universityID, from).
		Update("status", to)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update degree statuses: %w", result.Error)
	}
	d.invalidateUniversity(ctx, universityID)
	return result.RowsAffected, nil
}

func (d *DegreePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := d.helpers.getDB(tx).WithContext(ctx).Delete(&models.Degree{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete degree: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	cache.SafeInvalidatePattern(ctx, d.cacheManager.Degree, "*")
	return nil
}

func (d *DegreePostgreSQL) CountByStatus(ctx context.Context, tx *gorm.DB, universityID uint, status models.DegreeStatus) (int64, error) {
	var count int64
	err := d.helpers.getDB(tx).WithContext(ctx).
		Model(&models.Degree{}).
		Where("university_id = ? AND status = ?", universityID, status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count degrees: %w", err)
	}
	return count, nil
}

// invalidateUniversity clears every cached record and listing of one
// university after a write that may touch many rows.
func (d *DegreePostgreSQL) invalidateUniversity(ctx context.Context, universityID uint) {
	cache.SafeInvalidatePattern(ctx, d.cacheManager.Degree, fmt.Sprintf("university:%d:*", universityID))
}
