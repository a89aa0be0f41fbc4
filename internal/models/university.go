package models

import (
	"time"

	"gorm.io/gorm"
)

type University struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null;size:200" validate:"required,max=200"`

	// Domain is the canonical email domain including the leading '@',
	// stored lower-cased (e.g. "@foo.edu").
	Domain string `json:"domain" gorm:"uniqueIndex;not null;size:255" validate:"required"`

	AccreditationDetails *string `json:"accreditation_details,omitempty" gorm:"type:text"`
	IsVerified           bool    `json:"is_verified" gorm:"not null;default:false;index"`

	// VerificationDocument references an externally stored attestation.
	VerificationDocument *string `json:"-" gorm:"size:500"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Users   []User   `json:"-" gorm:"foreignKey:UniversityID"`
	Degrees []Degree `json:"-" gorm:"foreignKey:UniversityID"`
}

func (University) TableName() string {
	return "universities"
}

func (u *University) BeforeSave(tx *gorm.DB) error {
	u.Domain = NormalizeEmail(u.Domain)
	return nil
}
