// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/pwalczak/cv-optimizer/internal/domain"
)

// Repository defines the interface for persisting users, session blobs and
// CV records.
type Repository interface {
	// GetUser retrieves a user by id. Returns nil when no user exists.
	GetUser(ctx context.Context, userID string) (*domain.Actor, error)

	// GetUserByUsername retrieves a user by username. Returns nil when no
	// user exists.
	GetUserByUsername(ctx context.Context, username string) (*domain.Actor, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, actor *domain.Actor) error

	// GetSessionBlob returns the serialized session state for a user, or nil
	// when none is stored.
	GetSessionBlob(ctx context.Context, userID string) ([]byte, error)

	// PutSessionBlob stores the serialized session state for a user.
	PutSessionBlob(ctx context.Context, userID string, blob []byte) error

	// DeleteSessionBlob removes the stored session state for a user.
	DeleteSessionBlob(ctx context.Context, userID string) error

	// SaveCVUpload persists an uploaded CV record.
	SaveCVUpload(ctx context.Context, upload *domain.CVUpload) error

	// SaveAnalysisResult persists an audit record for a processing operation.
	SaveAnalysisResult(ctx context.Context, rec *domain.AnalysisResult) error

	// CleanupExpiredSessions removes session blobs older than TTL.
	CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
