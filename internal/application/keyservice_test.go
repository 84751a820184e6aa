package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apodpanel/apodpanel/internal/domain/model"
	"github.com/apodpanel/apodpanel/internal/domain/port/driven"
)

// fakeKeyStore is an in-memory KeyStore. When disabled is set, every call
// fails with ErrSecretKeyNotSet, matching a store without a secret.
type fakeKeyStore struct {
	value    string
	disabled bool
}

func (f *fakeKeyStore) Set(_ context.Context, value string) error {
	if f.disabled {
		return driven.ErrSecretKeyNotSet
	}
	f.value = value
	return nil
}

func (f *fakeKeyStore) Get(_ context.Context) (string, error) {
	if f.disabled {
		return "", driven.ErrSecretKeyNotSet
	}
	return f.value, nil
}

func (f *fakeKeyStore) Clear(_ context.Context) error {
	if f.disabled {
		return driven.ErrSecretKeyNotSet
	}
	f.value = ""
	return nil
}

const validPersonalKey = "aaaabbbbccccddddeeeeffffgggghhhhiiiijjjj"

func TestKeyService_ResolveDefaultsToShared(t *testing.T) {
	svc := NewKeyService(&fakeKeyStore{})

	key, err := svc.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, model.SharedAPIKey, key)
}

func TestKeyService_ResolveStoredKey(t *testing.T) {
	store := &fakeKeyStore{value: validPersonalKey}
	svc := NewKeyService(store)

	key, err := svc.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, validPersonalKey, key)
}

func TestKeyService_ResolveTrimsStoredKey(t *testing.T) {
	store := &fakeKeyStore{value: "  " + validPersonalKey + "\n"}
	svc := NewKeyService(store)

	key, err := svc.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, validPersonalKey, key)
}

func TestKeyService_ResolveBlankStoredKeyFallsBack(t *testing.T) {
	store := &fakeKeyStore{value: "   "}
	svc := NewKeyService(store)

	key, err := svc.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, model.SharedAPIKey, key)
}

func TestKeyService_ResolveWithoutSecretKey(t *testing.T) {
	svc := NewKeyService(&fakeKeyStore{disabled: true})

	key, err := svc.Resolve(context.Background())

	require.NoError(t, err)
	assert.Equal(t, model.SharedAPIKey, key)
}

func TestKeyService_Classify(t *testing.T) {
	tests := []struct {
		name   string
		stored string
		want   model.KeyClass
	}{
		{name: "no key", stored: "", want: model.KeyClassShared},
		{name: "shared token stored", stored: model.SharedAPIKey, want: model.KeyClassShared},
		{name: "personal key", stored: validPersonalKey, want: model.KeyClassPersonal},
		// Classification is exact and case-sensitive.
		{name: "lowercase demo_key is personal", stored: "demo_key_padded_to_length", want: model.KeyClassPersonal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewKeyService(&fakeKeyStore{value: tt.stored})

			class, err := svc.Classify(context.Background())

			require.NoError(t, err)
			assert.Equal(t, tt.want, class)
		})
	}
}

func TestKeyService_Save(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
		stored  string
	}{
		{name: "valid key", key: validPersonalKey, stored: validPersonalKey},
		{name: "key is trimmed", key: "  " + validPersonalKey + "  ", stored: validPersonalKey},
		{name: "blank key", key: "", wantErr: ErrBlankKey},
		{name: "whitespace key", key: "   \t", wantErr: ErrBlankKey},
		{name: "too short", key: "abc123", wantErr: ErrKeyTooShort},
		{name: "shared token allowed despite length", key: model.SharedAPIKey, stored: model.SharedAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeKeyStore{}
			svc := NewKeyService(store)

			err := svc.Save(context.Background(), tt.key)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, store.value)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.stored, store.value)
		})
	}
}

func TestKeyService_UseSharedKey(t *testing.T) {
	store := &fakeKeyStore{value: validPersonalKey}
	svc := NewKeyService(store)

	require.NoError(t, svc.UseSharedKey(context.Background()))

	class, err := svc.Classify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.KeyClassShared, class)
}

func TestKeyService_Clear(t *testing.T) {
	store := &fakeKeyStore{value: validPersonalKey}
	svc := NewKeyService(store)

	require.NoError(t, svc.Clear(context.Background()))

	key, err := svc.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.SharedAPIKey, key)
}

func TestKeyService_Status(t *testing.T) {
	t.Run("personal key is masked", func(t *testing.T) {
		svc := NewKeyService(&fakeKeyStore{value: validPersonalKey})

		status, err := svc.Status(context.Background())

		require.NoError(t, err)
		assert.Equal(t, model.KeyClassPersonal, status.Class)
		assert.NotEqual(t, validPersonalKey, status.MaskedKey)
		assert.Equal(t, "aaaa", status.MaskedKey[:4])
		assert.Equal(t, "jjjj", status.MaskedKey[len(status.MaskedKey)-4:])
		assert.NotContains(t, status.MaskedKey[4:len(status.MaskedKey)-4], "b")
	})

	t.Run("shared key shown verbatim", func(t *testing.T) {
		svc := NewKeyService(&fakeKeyStore{})

		status, err := svc.Status(context.Background())

		require.NoError(t, err)
		assert.Equal(t, model.KeyClassShared, status.Class)
		assert.Equal(t, model.SharedAPIKey, status.MaskedKey)
	})
}

func TestKeyService_PropagatesStoreErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	svc := NewKeyService(&errKeyStore{err: boom})

	_, err := svc.Resolve(context.Background())

	require.ErrorIs(t, err, boom)
}

type errKeyStore struct{ err error }

func (e *errKeyStore) Set(context.Context, string) error  { return e.err }
func (e *errKeyStore) Get(context.Context) (string, error) { return "", e.err }
func (e *errKeyStore) Clear(context.Context) error         { return e.err }
