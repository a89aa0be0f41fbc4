package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/repositories"
)

type TemplatePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewTemplatePostgreSQL(db *gorm.DB) repositories.TemplateRepository {
	return &TemplatePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (t *TemplatePostgreSQL) Create(ctx context.Context, tx *gorm.DB, template *models.Template) error {
	if err := t.helpers.getDB(tx).WithContext(ctx).Create(template).Error; err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func (t *TemplatePostgreSQL) GetByIDScoped(ctx context.Context, tx *gorm.DB, id, universityID uint) (*models.Template, error) {
	var template models.Template
	err := t.helpers.getDB(tx).WithContext(ctx).
		Where("id = ? AND university_id = ?", id, universityID).
		First(&template).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &template, nil
}

func (t *TemplatePostgreSQL) ListByUniversity(ctx context.Context, tx *gorm.DB, universityID uint) ([]*models.Template, error) {
	var templates []*models.Template
	err := t.helpers.getDB(tx).WithContext(ctx).
		Where("university_id = ?", universityID).
		Order("created_at DESC").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

func (t *TemplatePostgreSQL) Update(ctx context.Context, tx *gorm.DB, template *models.Template) error {
	if err := t.helpers.getDB(tx).WithContext(ctx).Save(template).Error; err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return nil
}

func (t *TemplatePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := t.helpers.getDB(tx).WithContext(ctx).Delete(&models.Template{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
