package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/diploma-service/internal/cache"
	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/repositories"
)

type UniversityPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewUniversityPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.UniversityRepository {
	return &UniversityPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func (u *UniversityPostgreSQL) Create(ctx context.Context, tx *gorm.DB, university *models.University) error {
	if err := u.helpers.getDB(tx).WithContext(ctx).Create(university).Error; err != nil {
		return fmt.Errorf("failed to create university: %w", err)
	}
	cache.InvalidateUniversityCache(ctx, u.cacheManager, university.ID)
	return nil
}

// GetVerifiedByID retrieves a university only if it passed platform
// verification; unverified ones report as not found.
func (u *UniversityPostgreSQL) GetVerifiedByID(ctx context.Context, tx *gorm.DB, id uint) (*models.University, error) {
	cacheKey := fmt.Sprintf("verified:%d", id)
	var university models.University

	err := u.cacheManager.University.CacheOrExecute(ctx, cacheKey, &university, cache.UniversityCacheConfig.TTL, func() (interface{}, error) {
		var dbUniversity models.University
		err := u.helpers.getDB(tx).WithContext(ctx).
			Where("id = ? AND is_verified = ?", id, true).
			First(&dbUniversity).Error
		if err != nil {
			return nil, mapNotFound(err)
		}
		return &dbUniversity, nil
	})
	if err != nil {
		return nil, err
	}
	return &university, nil
}

func (u *UniversityPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.University, error) {
	var university models.University
	err := u.helpers.getDB(tx).WithContext(ctx).First(&university, id).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &university, nil
}

func (u *UniversityPostgreSQL) GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.University, error) {
	var university models.University
	err := u.helpers.getDB(tx).WithContext(ctx).Where("name = ?", name).First(&university).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &university, nil
}

func (u *UniversityPostgreSQL) GetByDomain(ctx context.Context, tx *gorm.DB, domain string) (*models.University, error) {
	var university models.University
	err := u.helpers.getDB(tx).WithContext(ctx).
		Where("domain = ?", models.NormalizeEmail(domain)).
		First(&university).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &university, nil
}

func (u *UniversityPostgreSQL) ListVerified(ctx context.Context, tx *gorm.DB) ([]*models.University, error) {
	var universities []*models.University
	err := u.helpers.getDB(tx).WithContext(ctx).
		Where("is_verified = ?", true).
		Order("name ASC").
		Find(&universities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list verified universities: %w", err)
	}
	return universities, nil
}

func (u *UniversityPostgreSQL) Update(ctx context.Context, tx *gorm.DB, university *models.University) error {
	if err := u.helpers.getDB(tx).WithContext(ctx).Save(university).Error; err != nil {
		return fmt.Errorf("failed to update university: %w", err)
	}
	cache.InvalidateUniversityCache(ctx, u.cacheManager, university.ID)
	return nil
}
