package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dipesh37/quiz1/internal/database"
	"github.com/dipesh37/quiz1/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrDuplicateSubmission = errors.New("email has already submitted an answer")
	ErrSubmissionNotFound  = errors.New("submission not found")
)

// InputError is a request-level rejection whose message is safe to show.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

const (
	msgMissingFields = "Email and answer are required"
	msgWrongDomain   = "Only @nitj.ac.in email addresses are allowed"
	msgShortAnswer   = "Answer must be at least 10 characters long"
)

type SubmissionService struct {
	store  *database.Store
	domain string
	now    func() time.Time
}

func NewSubmissionService(store *database.Store, domain string) *SubmissionService {
	return &SubmissionService{
		store:  store,
		domain: strings.ToLower(domain),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the timestamp source used for new submissions.
func (s *SubmissionService) WithClock(now func() time.Time) *SubmissionService {
	s.now = now
	return s
}

type CreateInput struct {
	Email     string
	Answer    string
	IPAddress string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckInput runs the request-level checks in order and stops at the first
// failure.
func (s *SubmissionService) CheckInput(email, answer string) error {
	email = NormalizeEmail(email)
	answer = strings.TrimSpace(answer)

	if email == "" || answer == "" {
		return &InputError{Message: msgMissingFields}
	}
	if !strings.HasSuffix(email, "@"+s.domain) {
		return &InputError{Message: msgWrongDomain}
	}
	if utf8.RuneCountInString(answer) < models.AnswerMinLength {
		return &InputError{Message: msgShortAnswer}
	}
	return nil
}

func (s *SubmissionService) Create(ctx context.Context, in CreateInput) (*models.Submission, error) {
	if err := s.CheckInput(in.Email, in.Answer); err != nil {
		return nil, err
	}

	db, err := s.store.DB(ctx)
	if err != nil {
		return nil, err
	}

	email := NormalizeEmail(in.Email)

	var existing int64
	if err := db.Model(&models.Submission{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check existing submission: %w", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateSubmission
	}

	sub := models.Submission{
		Email:       email,
		Answer:      strings.TrimSpace(in.Answer),
		// timestamptz keeps microseconds; match what a later read returns.
		SubmittedAt: s.now().Truncate(time.Microsecond),
	}
	if ip := strings.TrimSpace(in.IPAddress); ip != "" {
		sub.IPAddress = &ip
	}

	if err := db.Create(&sub).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSubmission
		}
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return nil, verr
		}
		return nil, fmt.Errorf("create submission: %w", err)
	}
	return &sub, nil
}

// List returns every submission, newest first.
func (s *SubmissionService) List(ctx context.Context) ([]models.Submission, error) {
	db, err := s.store.DB(ctx)
	if err != nil {
		return nil, err
	}

	subs := []models.Submission{}
	if err := db.Order("submitted_at DESC").Order("id DESC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}

func (s *SubmissionService) Count(ctx context.Context) (int64, error) {
	db, err := s.store.DB(ctx)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := db.Model(&models.Submission{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

// Delete removes the submission for email, matched after normalization.
func (s *SubmissionService) Delete(ctx context.Context, email string) error {
	db, err := s.store.DB(ctx)
	if err != nil {
		return err
	}

	res := db.Where("email = ?", NormalizeEmail(email)).Delete(&models.Submission{})
	if res.Error != nil {
		return fmt.Errorf("delete submission: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}
