package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates every sub-repository behind one dependency.
type Repository interface {
	Degree() DegreeRepository
	University() UniversityRepository
	User() UserRepository
	Token() TokenRepository
	Template() TemplateRepository

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ErrNotFound is the storage-level absence error every sub-repository maps
// its driver's not-found condition onto.
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err represents record absence, from either
// this package's sentinel or the underlying gorm driver.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
