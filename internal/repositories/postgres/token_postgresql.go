package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/repositories"
)

type TokenPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewTokenPostgreSQL(db *gorm.DB) repositories.TokenRepository {
	return &TokenPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (t *TokenPostgreSQL) CreateVerification(ctx context.Context, tx *gorm.DB, token *models.VerificationToken) error {
	if err := t.helpers.getDB(tx).WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}
	return nil
}

func (t *TokenPostgreSQL) GetValidVerification(ctx context.Context, tx *gorm.DB, token string) (*models.VerificationToken, error) {
	var vt models.VerificationToken
	err := t.helpers.getDB(tx).WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, time.Now()).
		First(&vt).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &vt, nil
}

func (t *TokenPostgreSQL) DeleteVerification(ctx context.Context, tx *gorm.DB, id uint) error {
	if err := t.helpers.getDB(tx).WithContext(ctx).Delete(&models.VerificationToken{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete verification token: %w", err)
	}
	return nil
}

func (t *TokenPostgreSQL) CreateInvitation(ctx context.Context, tx *gorm.DB, token *models.InvitationToken) error {
	if err := t.helpers.getDB(tx).WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to create invitation token: %w", err)
	}
	return nil
}

func (t *TokenPostgreSQL) GetValidInvitation(ctx context.Context, tx *gorm.DB, token string) (*models.InvitationToken, error) {
	var it models.InvitationToken
	err := t.helpers.getDB(tx).WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, time.Now()).
		First(&it).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &it, nil
}

func (t *TokenPostgreSQL) DeleteInvitation(ctx context.Context, tx *gorm.DB, id uint) error {
	if err := t.helpers.getDB(tx).WithContext(ctx).Delete(&models.InvitationToken{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete invitation token: %w", err)
	}
	return nil
}

// DeleteExpired sweeps both token tables.
func (t *TokenPostgreSQL) DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	db := t.helpers.getDB(tx).WithContext(ctx)

	verif := db.Where("expires_at <= ?", now).Delete(&models.VerificationToken{})
	if verif.Error != nil {
		return 0, fmt.Errorf("failed to delete expired verification tokens: %w", verif.Error)
	}

	invit := db.Where("expires_at <= ?", now).Delete(&models.InvitationToken{})
	if invit.Error != nil {
		return verif.RowsAffected, fmt.Errorf("failed to delete expired invitation tokens: %w", invit.Error)
	}

	return verif.RowsAffected + invit.RowsAffected, nil
}
