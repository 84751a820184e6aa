package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/apodpanel/apodpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.KeyStore = (*KeyRepo)(nil)

// KeyRepo is the SQLite implementation of the KeyStore port interface. The
// API key is encrypted with AES-256-GCM before write and decrypted after
// read; the table holds at most one row.
type KeyRepo struct {
	db     *DB
	secret []byte // 32-byte AES-256 key; nil when encryption is disabled.
}

// NewKeyRepo creates a new KeyRepo. secret must be 32 bytes for AES-256-GCM,
// or nil to disable key storage (all operations return ErrSecretKeyNotSet).
func NewKeyRepo(db *DB, secret []byte) *KeyRepo {
	return &KeyRepo{db: db, secret: secret}
}

// Set stores or replaces the API key.
func (r *KeyRepo) Set(ctx context.Context, plaintext string) error {
	encrypted, err := r.encrypt(plaintext)
	if err != nil {
		return err
	}

	const query = `INSERT OR REPLACE INTO api_key (id, value, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)`
	if _, err := r.db.Writer.ExecContext(ctx, query, encrypted); err != nil {
		return fmt.Errorf("set api key: %w", err)
	}
	return nil
}

// Get retrieves the stored API key. Returns ("", nil) if none is stored.
func (r *KeyRepo) Get(ctx context.Context) (string, error) {
	if r.secret == nil {
		return "", driven.ErrSecretKeyNotSet
	}

	const query = `SELECT value FROM api_key WHERE id = 1`
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get api key: %w", err)
	}

	plaintext, err := r.decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypt api key: %w", err)
	}
	return plaintext, nil
}

// Clear removes the stored API key.
func (r *KeyRepo) Clear(ctx context.Context) error {
	const query = `DELETE FROM api_key WHERE id = 1`
	if _, err := r.db.Writer.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("clear api key: %w", err)
	}
	return nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded
// string containing the nonce (12 bytes) prepended to the ciphertext.
func (r *KeyRepo) encrypt(plaintext string) (string, error) {
	if r.secret == nil {
		return "", driven.ErrSecretKeyNotSet
	}

	block, err := aes.NewCipher(r.secret)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *KeyRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	block, err := aes.NewCipher(r.secret)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}
