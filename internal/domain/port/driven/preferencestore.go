package driven

import (
	"context"

	"github.com/apodpanel/apodpanel/internal/domain/model"
)

// PreferenceStore defines the driven port for flat string preference flags.
type PreferenceStore interface {
	// Get retrieves a preference by name. Returns (nil, nil) when unset --
	// callers apply defaults.
	Get(ctx context.Context, name string) (*model.Preference, error)

	// Set inserts or replaces a preference.
	Set(ctx context.Context, name, value string) error
}
