package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/edvin/haas/internal/model"
	"github.com/edvin/haas/internal/platform"
)

// APIKeyService manages API keys in the core database.
type APIKeyService struct {
	db DB
}

func NewAPIKeyService(db DB) *APIKeyService {
	return &APIKeyService{db: db}
}

// Create generates a new API key, stores its hash, and returns the model along
// with the raw key string. The raw key must be shown to the user exactly once.
func (s *APIKeyService) Create(ctx context.Context, name string) (*model.APIKey, string, error) {
	rawKey := platform.NewAPIKey()
	key, err := s.CreateWithRawKey(ctx, name, rawKey)
	if err != nil {
		return nil, "", err
	}
	return key, rawKey, nil
}

// CreateWithRawKey stores a caller-provided key. Used for well-known dev keys.
func (s *APIKeyService) CreateWithRawKey(ctx context.Context, name, rawKey string) (*model.APIKey, error) {
	if len(rawKey) < len(platform.APIKeyPrefix)+8 {
		return nil, fmt.Errorf("api key too short")
	}
	key := &model.APIKey{
		ID:        platform.NewID(),
		Name:      name,
		KeyHash:   HashAPIKey(rawKey),
		KeyPrefix: rawKey[:len(platform.APIKeyPrefix)+8],
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, created_at) VALUES ($1, $2, $3, $4, now())
		 RETURNING created_at`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix,
	).Scan(&key.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert api key: %w", err)
	}
	return key, nil
}

// List returns all keys, newest first.
func (s *APIKeyService) List(ctx context.Context) ([]model.APIKey, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, key_prefix, created_at, revoked_at FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		var k model.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyPrefix, &k.CreatedAt, &k.RevokedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api keys: %w", err)
	}
	return keys, nil
}

// Revoke soft-deletes an API key by setting revoked_at.
func (s *APIKeyService) Revoke(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE api_keys SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL", id,
	)
	if err != nil {
		return fmt.Errorf("revoke api key %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("revoke api key %s: %w", id, ErrNotFound)
	}
	return nil
}

// HashAPIKey is the stored form of a raw key.
func HashAPIKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}
