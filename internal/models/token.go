package models

import "time"

// VerificationToken is the single-use credential behind email verification.
// Created at registration, consumed (deleted) on first valid use or left to
// expire.
type VerificationToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Token     string    `json:"-" gorm:"uniqueIndex;not null;size:128"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (VerificationToken) TableName() string {
	return "verification_tokens"
}

func (t *VerificationToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// InvitationToken carries a pending university-admin invitation: the invited
// email plus the university the admin will belong to. Same single-use,
// time-boxed lifecycle as VerificationToken.
type InvitationToken struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UniversityID uint      `json:"university_id" gorm:"not null;index"`
	Email        string    `json:"email" gorm:"not null;size:255"`
	Token        string    `json:"-" gorm:"uniqueIndex;not null;size:128"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt    time.Time `json:"created_at"`

	University University `json:"-" gorm:"foreignKey:UniversityID;constraint:OnDelete:CASCADE"`
}

func (InvitationToken) TableName() string {
	return "invitation_tokens"
}

func (t *InvitationToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
