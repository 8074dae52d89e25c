package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	AnswerMinLength = 10
	AnswerMaxLength = 2000
)

type Submission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Email       string    `gorm:"size:255;not null;uniqueIndex:idx_submissions_email;check:chk_submissions_email_domain,email LIKE '%@nitj.ac.in'" json:"email" validate:"required,nitjemail"`
	Answer      string    `gorm:"type:text;not null;check:chk_submissions_answer_length,length(answer) BETWEEN 10 AND 2000" json:"answer" validate:"required,min=10,max=2000"`
	SubmittedAt time.Time `gorm:"not null;index:idx_submissions_submitted_at,sort:desc" json:"submittedAt"`
	IPAddress   *string   `gorm:"size:255" json:"ipAddress"`
	Version     int       `gorm:"not null;default:0" json:"-"`
}

// BeforeCreate rejects rows that would violate the field rules, so callers
// that bypass the API layer still cannot persist an invalid submission.
func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = time.Now().UTC()
	}
	return Validate(s)
}
