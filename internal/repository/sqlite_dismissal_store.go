package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"plan-banner-service/internal/domain"
	apperrors "plan-banner-service/pkg/errors"

	_ "modernc.org/sqlite"
)

// SQLiteDismissalStore persists banner dismiss flags and small cached scalars
// in a node-local SQLite database. Plan-status flags are keyed by
// (user, banner, instance); usage-limit flags carry an empty instance id.
type SQLiteDismissalStore struct {
	db     *sql.DB
	logger domain.Logger
}

// NewSQLiteDismissalStore opens (or creates) the dismissal database in dir.
func NewSQLiteDismissalStore(dir string, logger domain.Logger) (*SQLiteDismissalStore, error) {
	if dir == "" {
		return nil, apperrors.NewValidationError("data dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewStorageError("failed to create dismissal store dir", err)
	}

	dbPath := filepath.Join(dir, "banner_dismissals.db")
	dsn := dbPath + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(5000)",
			"journal_mode(WAL)",
			"synchronous(NORMAL)",
		},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open dismissal db", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteDismissalStore{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, errors.Join(err, fmt.Errorf("close dismissal db after schema init failure: %w", closeErr))
		}
		return nil, err
	}

	return s, nil
}

func (s *SQLiteDismissalStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS banner_dismissals (
		user_id TEXT NOT NULL,
		banner_type TEXT NOT NULL,
		instance_id TEXT NOT NULL DEFAULT '',
		dismissed_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, banner_type, instance_id)
	);
	CREATE TABLE IF NOT EXISTS kv (
		user_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, key)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init dismissal schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteDismissalStore) Close() error {
	return s.db.Close()
}

// IsDismissed reports whether the flag for (user, banner, instance) is set.
func (s *SQLiteDismissalStore) IsDismissed(ctx context.Context, userID string, banner domain.BannerType, instanceID string) (bool, error) {
	if banner.IsUsageLimit() {
		instanceID = ""
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM banner_dismissals WHERE user_id = ? AND banner_type = ? AND instance_id = ?`,
		userID, string(banner), instanceID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("read dismiss flag: %w", err)
	}
	return count > 0, nil
}

// Dismiss sets the flag. Repeated calls are no-ops.
func (s *SQLiteDismissalStore) Dismiss(ctx context.Context, userID string, banner domain.BannerType, instanceID string) error {
	if banner.IsUsageLimit() {
		instanceID = ""
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO banner_dismissals (user_id, banner_type, instance_id, dismissed_at) VALUES (?, ?, ?, ?)`,
		userID, string(banner), instanceID, time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("write dismiss flag: %w", err)
	}
	return nil
}

// ResetAll deletes every dismiss flag and cached scalar for the user. Used on
// account deletion and debug reset.
func (s *SQLiteDismissalStore) ResetAll(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM banner_dismissals WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("reset dismissals: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("reset kv: %w", err)
	}
	return nil
}

// ResetUsageDismissals clears only the usage-limit flags, so those banners
// become eligible again after a counter reset.
func (s *SQLiteDismissalStore) ResetUsageDismissals(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM banner_dismissals WHERE user_id = ? AND banner_type IN (?, ?)`,
		userID, string(domain.BannerUsageLimitFree), string(domain.BannerUsageLimitPro),
	)
	if err != nil {
		return fmt.Errorf("reset usage dismissals: %w", err)
	}
	return nil
}

// GetValue reads a cached scalar. Missing keys return an empty string.
func (s *SQLiteDismissalStore) GetValue(ctx context.Context, userID, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE user_id = ? AND key = ?`, userID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read kv: %w", err)
	}
	return value, nil
}

// SetValue writes a cached scalar, replacing any previous value.
func (s *SQLiteDismissalStore) SetValue(ctx context.Context, userID, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv (user_id, key, value, updated_at) VALUES (?, ?, ?, ?)`,
		userID, key, value, time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("write kv: %w", err)
	}
	return nil
}
