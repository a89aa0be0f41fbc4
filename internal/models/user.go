package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent         UserRole = "student"
	RoleUniversityAdmin UserRole = "university_admin"
	RolePlatformAdmin   UserRole = "platform_admin"
)

type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`
	PasswordHash string   `json:"-" gorm:"not null;size:255"`
	Role         UserRole `json:"role" gorm:"not null;size:50;index"`

	// UniversityID is nil only for platform admins.
	UniversityID *uint `json:"university_id,omitempty" gorm:"index"`

	// IsVerified flips when the email verification token is consumed;
	// degree linking never happens before that.
	IsVerified bool `json:"is_verified" gorm:"not null;default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	University *University `json:"-" gorm:"foreignKey:UniversityID"`
	Degrees    []Degree    `json:"-" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	return nil
}
