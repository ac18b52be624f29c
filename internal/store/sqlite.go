package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pwalczak/cv-optimizer/internal/domain"
	"github.com/pwalczak/cv-optimizer/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	sessionMu sync.Mutex // Mutex for session blob operations to prevent SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT,
		password_hash TEXT,
		developer_override INTEGER NOT NULL DEFAULT 0,
		premium_until INTEGER,
		stripe_session_id TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		user_id TEXT PRIMARY KEY,
		state_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);

	CREATE TABLE IF NOT EXISTS cv_uploads (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		original_text TEXT NOT NULL,
		job_title TEXT,
		job_description TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cv_uploads_user ON cv_uploads(user_id);

	CREATE TABLE IF NOT EXISTS analysis_results (
		id TEXT PRIMARY KEY,
		cv_upload_id TEXT NOT NULL,
		analysis_type TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analysis_results_upload ON analysis_results(cv_upload_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const userColumns = `user_id, username, email, password_hash, developer_override,
       premium_until, stripe_session_id, created_at, updated_at`

func scanActor(row interface{ Scan(...any) error }) (*domain.Actor, error) {
	var actor domain.Actor
	var email, passwordHash, stripeSessionID sql.NullString
	var premiumUntil sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(
		&actor.ID, &actor.Username, &email, &passwordHash, &actor.DeveloperOverride,
		&premiumUntil, &stripeSessionID, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	actor.Email = email.String
	actor.PasswordHash = passwordHash.String
	actor.StripeSessionID = stripeSessionID.String
	if premiumUntil.Valid {
		ts := time.Unix(premiumUntil.Int64, 0)
		actor.PremiumUntil = &ts
	}
	actor.CreatedAt = time.Unix(createdAt, 0)
	actor.UpdatedAt = time.Unix(updatedAt, 0)

	return &actor, nil
}

// GetUser retrieves a user by id.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.Actor, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = ?`
	return scanActor(s.db.QueryRowContext(ctx, query, userID))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*domain.Actor, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return scanActor(s.db.QueryRowContext(ctx, query, username))
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, actor *domain.Actor) error {
	query := `
	INSERT INTO users (user_id, username, email, password_hash, developer_override,
	                   premium_until, stripe_session_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		email = excluded.email,
		password_hash = excluded.password_hash,
		developer_override = excluded.developer_override,
		premium_until = excluded.premium_until,
		stripe_session_id = excluded.stripe_session_id,
		updated_at = excluded.updated_at`

	var premiumUntil interface{}
	if actor.PremiumUntil != nil {
		premiumUntil = actor.PremiumUntil.Unix()
	}

	_, err := s.db.ExecContext(ctx, query,
		actor.ID, actor.Username, nullable(actor.Email), nullable(actor.PasswordHash),
		actor.DeveloperOverride, premiumUntil, nullable(actor.StripeSessionID),
		actor.CreatedAt.Unix(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetSessionBlob returns the serialized session state for a user.
func (s *SQLiteStore) GetSessionBlob(ctx context.Context, userID string) ([]byte, error) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	var stateJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT state_json FROM sessions WHERE user_id = ?`, userID).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	return []byte(stateJSON), nil
}

// PutSessionBlob stores the serialized session state for a user.
func (s *SQLiteStore) PutSessionBlob(ctx context.Context, userID string, blob []byte) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	now := time.Now().Unix()
	query := `
	INSERT INTO sessions (user_id, state_json, created_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		state_json = excluded.state_json,
		updated_at = excluded.updated_at`

	// Retry with exponential backoff to ride out SQLITE_BUSY under write
	// contention.
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		_, err = s.db.ExecContext(ctx, query, userID, string(blob), now, now)
		if err == nil {
			return nil
		}
		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			time.Sleep(baseDelay * time.Duration(1<<i))
			continue
		}
		break
	}
	return fmt.Errorf("upsert session: %w", err)
}

// DeleteSessionBlob removes the stored session state for a user.
func (s *SQLiteStore) DeleteSessionBlob(ctx context.Context, userID string) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SaveCVUpload persists an uploaded CV record.
func (s *SQLiteStore) SaveCVUpload(ctx context.Context, upload *domain.CVUpload) error {
	query := `
	INSERT INTO cv_uploads (id, user_id, filename, original_text, job_title, job_description, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		upload.ID, upload.UserID, upload.Filename, upload.OriginalText,
		nullable(upload.JobTitle), nullable(upload.JobDescription),
		upload.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert cv upload: %w", err)
	}
	return nil
}

// SaveAnalysisResult persists an audit record for a processing operation.
func (s *SQLiteStore) SaveAnalysisResult(ctx context.Context, rec *domain.AnalysisResult) error {
	query := `
	INSERT INTO analysis_results (id, cv_upload_id, analysis_type, result_json, created_at)
	VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.CVUploadID, rec.AnalysisType, rec.ResultJSON, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert analysis result: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes session blobs older than TTL.
func (s *SQLiteStore) CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	threshold := time.Now().Add(-ttl).Unix()
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired sessions: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
