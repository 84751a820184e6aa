package driven

import (
	"context"
	"errors"
)

// ErrSecretKeyNotSet is returned by KeyStore operations when
// APODPANEL_SECRET_KEY has not been configured. Without it the panel runs on
// the shared DEMO_KEY only.
var ErrSecretKeyNotSet = errors.New("secret key not configured: set APODPANEL_SECRET_KEY")

// KeyStore defines the driven port for API key persistence. The adapter
// layer is responsible for encryption at rest; this interface operates on
// plaintext values at the domain boundary.
type KeyStore interface {
	// Set stores or replaces the API key.
	Set(ctx context.Context, plaintext string) error

	// Get retrieves the stored API key. Returns ("", nil) if none is stored.
	Get(ctx context.Context) (string, error)

	// Clear removes the stored API key.
	Clear(ctx context.Context) error
}
