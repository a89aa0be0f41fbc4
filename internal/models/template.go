package models

import (
	"time"

	"gorm.io/gorm"
)

// Template is a per-university certificate layout document. The service
// stores only the file reference; rendering happens elsewhere.
type Template struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	UniversityID uint   `json:"university_id" gorm:"not null;index"`
	TemplateName string `json:"template_name" gorm:"not null;size:200" validate:"required,max=200"`
	FilePath     string `json:"-" gorm:"not null;size:500"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	University University `json:"-" gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE"`
}

func (Template) TableName() string {
	return "templates"
}
