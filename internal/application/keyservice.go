package application

import (
	"context"
	"errors"
	"strings"

	"github.com/apodpanel/apodpanel/internal/domain/model"
	"github.com/apodpanel/apodpanel/internal/domain/port/driven"
)

// minKeyLength guards against obviously truncated keys; real api.nasa.gov
// keys are 40 characters.
const minKeyLength = 20

var (
	// ErrBlankKey is returned when a save is attempted with an empty or
	// whitespace-only key.
	ErrBlankKey = errors.New("api key must not be blank")

	// ErrKeyTooShort is returned when the key is implausibly short.
	ErrKeyTooShort = errors.New("api key seems too short: check and try again")
)

// KeyStatus is the GUI-facing view of the stored credential. The raw key
// never leaves the service; only a masked form is exposed.
type KeyStatus struct {
	Class     model.KeyClass
	MaskedKey string
}

// KeyService manages the stored API key and its quota classification.
// Classification is recomputed from the store on every call so it always
// reflects the latest save.
type KeyService struct {
	store driven.KeyStore
}

// NewKeyService creates a KeyService backed by the given store.
func NewKeyService(store driven.KeyStore) *KeyService {
	return &KeyService{store: store}
}

// Resolve returns the key to use for the next request: the stored personal
// key when present and non-blank, else the shared fallback token. A store
// without a configured secret behaves as if no key were stored.
func (s *KeyService) Resolve(ctx context.Context) (string, error) {
	stored, err := s.store.Get(ctx)
	if errors.Is(err, driven.ErrSecretKeyNotSet) {
		return model.SharedAPIKey, nil
	}
	if err != nil {
		return "", err
	}

	if trimmed := strings.TrimSpace(stored); trimmed != "" {
		return trimmed, nil
	}
	return model.SharedAPIKey, nil
}

// Classify reports the quota class of the currently resolved key.
func (s *KeyService) Classify(ctx context.Context) (model.KeyClass, error) {
	key, err := s.Resolve(ctx)
	if err != nil {
		return "", err
	}
	if key == model.SharedAPIKey {
		return model.KeyClassShared, nil
	}
	return model.KeyClassPersonal, nil
}

// Save validates and persists a user-supplied key. The key is trimmed before
// storage so classification and resolution compare clean values.
func (s *KeyService) Save(ctx context.Context, key string) error {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return ErrBlankKey
	}
	if len(trimmed) < minKeyLength && trimmed != model.SharedAPIKey {
		return ErrKeyTooShort
	}
	return s.store.Set(ctx, trimmed)
}

// UseSharedKey explicitly selects the shared fallback token, matching the
// "use demo key" action in the GUI.
func (s *KeyService) UseSharedKey(ctx context.Context) error {
	return s.store.Set(ctx, model.SharedAPIKey)
}

// Clear removes the stored key, dropping back to the shared fallback.
func (s *KeyService) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// Status returns the current classification and a masked rendering of the
// key for display.
func (s *KeyService) Status(ctx context.Context) (KeyStatus, error) {
	key, err := s.Resolve(ctx)
	if err != nil {
		return KeyStatus{}, err
	}

	status := KeyStatus{Class: model.KeyClassPersonal, MaskedKey: maskKey(key)}
	if key == model.SharedAPIKey {
		status.Class = model.KeyClassShared
		status.MaskedKey = model.SharedAPIKey
	}
	return status, nil
}

// maskKey keeps the first and last four characters visible.
func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
