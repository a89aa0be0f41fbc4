package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/repositories"
	"github.com/SAP-F-2025/diploma-service/internal/validator"
)

// runInTx executes fn inside a database transaction. With no database
// handle (fake-backed tests) fn runs directly with a nil transaction, which
// repositories treat as their base connection.
func runInTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// mapDegreeError converts repository not-found results on degree lookups.
func mapDegreeError(err error) error {
	if repositories.IsNotFoundError(err) {
		return ErrDegreeNotFound
	}
	return err
}

func degreeToResponse(d *models.Degree) *DegreeResponse {
	resp := &DegreeResponse{
		ID:             d.ID,
		UniversityID:   d.UniversityID,
		UserID:         d.UserID,
		StudentEmail:   d.StudentEmail,
		DegreeType:     d.DegreeType,
		Major:          d.Major,
		GraduationDate: time.Time(d.GraduationDate).Format(validator.GraduationDateLayout),
		Status:         d.Status,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if d.University.Name != "" {
		resp.UniversityName = d.University.Name
	}
	return resp
}

func degreesToResponses(degrees []*models.Degree) []*DegreeResponse {
	out := make([]*DegreeResponse, len(degrees))
	for i, d := range degrees {
		out[i] = degreeToResponse(d)
	}
	return out
}

func userToResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Role:         u.Role,
		UniversityID: u.UniversityID,
		IsVerified:   u.IsVerified,
		CreatedAt:    u.CreatedAt,
	}
}

func universityToResponse(u *models.University) *UniversityResponse {
	return &UniversityResponse{
		ID:         u.ID,
		Name:       u.Name,
		Domain:     u.Domain,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

func templateToResponse(t *models.Template) *TemplateResponse {
	return &TemplateResponse{
		ID:           t.ID,
		UniversityID: t.UniversityID,
		TemplateName: t.TemplateName,
		CreatedAt:    t.CreatedAt,
	}
}

// generateToken produces an opaque random token for verification and
// invitation links.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
