package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DegreeStatus string

const (
	DegreeDraft               DegreeStatus = "draft"
	DegreePendingConfirmation DegreeStatus = "pending_confirmation"
	DegreeSubmitted           DegreeStatus = "submitted"
	DegreeLinked              DegreeStatus = "linked"
)

func (s DegreeStatus) Valid() bool {
	switch s {
	case DegreeDraft, DegreePendingConfirmation, DegreeSubmitted, DegreeLinked:
		return true
	}
	return false
}

// IsMutable reports whether the record's fields may still be edited or the
// record deleted. Only drafts are mutable.
func (s DegreeStatus) IsMutable() bool {
	return s == DegreeDraft
}

const (
	ConfirmStepInitial = 1
	ConfirmStepFinal   = 2
)

// ConfirmTransition returns the status every record in a batch must hold
// before the given confirmation step and the status it advances to.
func ConfirmTransition(step int) (from, to DegreeStatus, err error) {
	switch step {
	case ConfirmStepInitial:
		return DegreeDraft, DegreePendingConfirmation, nil
	case ConfirmStepFinal:
		return DegreePendingConfirmation, DegreeSubmitted, nil
	default:
		return "", "", fmt.Errorf("invalid confirmation step %d", step)
	}
}

// RevertTransition is the single backward edge of the state machine:
// a first-step acknowledgment can be cancelled back to draft.
func RevertTransition() (from, to DegreeStatus) {
	return DegreePendingConfirmation, DegreeDraft
}

type Degree struct {
	ID           uint  `json:"id" gorm:"primaryKey"`
	UniversityID uint  `json:"university_id" gorm:"not null;index"`
	UserID       *uint `json:"user_id" gorm:"index"` // nil until the linking resolver binds a student account

	// StudentEmail is the binding key before linking; always stored
	// lower-cased so matching is case-insensitive.
	StudentEmail string `json:"student_email" gorm:"not null;size:255;index" validate:"required,email"`

	DegreeType     string         `json:"degree_type" gorm:"not null;size:100" validate:"required,max=100"`
	Major          string         `json:"major" gorm:"not null;size:200" validate:"required,max=200"`
	GraduationDate datatypes.Date `json:"graduation_date" gorm:"not null"`
	Status         DegreeStatus   `json:"status" gorm:"default:draft;index"`

	// FilePath references the externally stored credential document.
	FilePath *string `json:"-" gorm:"size:500"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	University University `json:"-" gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE"`
	Owner      *User      `json:"owner,omitempty" gorm:"foreignKey:UserID"`
}

func (Degree) TableName() string {
	return "degrees"
}

func (d *Degree) BeforeSave(tx *gorm.DB) error {
	d.StudentEmail = NormalizeEmail(d.StudentEmail)
	return nil
}

// NormalizeEmail lower-cases and trims an email address into its stored
// canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
