package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/apodpanel/apodpanel/internal/domain/model"
	"github.com/apodpanel/apodpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PreferenceStore = (*PreferenceRepo)(nil)

// PreferenceRepo is the SQLite implementation of the PreferenceStore port
// interface. Preferences are flat name/value string flags.
type PreferenceRepo struct {
	db *DB
}

// NewPreferenceRepo creates a new PreferenceRepo backed by the given DB.
func NewPreferenceRepo(db *DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

// Get retrieves a preference by name. Returns (nil, nil) when unset --
// callers should apply defaults.
func (r *PreferenceRepo) Get(ctx context.Context, name string) (*model.Preference, error) {
	const query = `SELECT name, value, updated_at FROM preferences WHERE name = ?`

	var pref model.Preference
	var updatedAt string
	err := r.db.Reader.QueryRowContext(ctx, query, name).Scan(&pref.Name, &pref.Value, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preference %q: %w", name, err)
	}

	pref.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at for preference %q: %w", name, err)
	}

	return &pref, nil
}

// Set inserts or replaces a preference.
func (r *PreferenceRepo) Set(ctx context.Context, name, value string) error {
	const query = `
		INSERT INTO preferences (name, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := r.db.Writer.ExecContext(ctx, query, name, value); err != nil {
		return fmt.Errorf("set preference %q: %w", name, err)
	}
	return nil
}

// parseTime handles the timestamp formats SQLite emits for
// CURRENT_TIMESTAMP columns.
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.DateTime, time.RFC3339, "2006-01-02 15:04:05.999999999-07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
