package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/diploma-service/internal/models"
)

// Sentinel errors shared across services. Handlers map these onto HTTP
// status codes.
var (
	ErrDegreeNotFound     = errors.New("degree not found")
	ErrUniversityNotFound = errors.New("university not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrTemplateNotFound   = errors.New("template not found")

	ErrTokenInvalid       = errors.New("token is invalid or expired")
	ErrEmailInUse         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrEmptyBatch              = errors.New("batch contains no degree ids")
	ErrInvalidConfirmationStep = errors.New("invalid confirmation step")
)

// StateConflictError reports a degree whose current status blocked an
// operation. For batch operations the first offending record is reported;
// the whole batch is rejected.
type StateConflictError struct {
	DegreeID uint
	Current  models.DegreeStatus
	Expected models.DegreeStatus
	Op       string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("cannot %s degree %d: status is %q, expected %q", e.Op, e.DegreeID, e.Current, e.Expected)
}

func NewStateConflictError(degreeID uint, current, expected models.DegreeStatus, op string) *StateConflictError {
	return &StateConflictError{DegreeID: degreeID, Current: current, Expected: expected, Op: op}
}

// IsStateConflict checks whether err is a state conflict.
func IsStateConflict(err error) bool {
	var sc *StateConflictError
	return errors.As(err, &sc)
}

// DomainMismatchError reports a student email whose domain does not belong
// to the target university.
type DomainMismatchError struct {
	Email  string
	Domain string
}

func (e *DomainMismatchError) Error() string {
	return fmt.Sprintf("email %q does not match university domain %q", e.Email, e.Domain)
}

func NewDomainMismatchError(email, domain string) *DomainMismatchError {
	return &DomainMismatchError{Email: email, Domain: domain}
}

func IsDomainMismatch(err error) bool {
	var dm *DomainMismatchError
	return errors.As(err, &dm)
}

// RowError ties a validation failure to its row in an uploaded roster file.
// Row numbers count from the top of the file including the header row.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// BatchValidationError rejects a whole bulk upload and carries every row
// failure found, not just the first.
type BatchValidationError struct {
	Rows []RowError
}

func (e *BatchValidationError) Error() string {
	return fmt.Sprintf("batch rejected: %d row errors", len(e.Rows))
}

func IsBatchValidation(err error) bool {
	var bv *BatchValidationError
	return errors.As(err, &bv)
}

// IsNotFound checks for any of the service-level not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDegreeNotFound) ||
		errors.Is(err, ErrUniversityNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTemplateNotFound)
}
