// Package webhook implements the public capture surface: website contact
// forms authenticated by API key and the inbound WhatsApp gateway hook. Both
// funnel into the leads module.
package webhook

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAPIKeyNotFound = errors.New("webhook API key not found")

// APIKey authenticates an external website posting contact forms. Only the
// hash is stored; the plaintext is shown once at creation.
type APIKey struct {
	ID             uuid.UUID
	Name           string
	KeyHash        string
	KeyPrefix      string
	AllowedDomains []string
	IsActive       bool
	CreatedAt      time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GenerateAPIKey returns a fresh random key, its storage hash and the display
// prefix.
func GenerateAPIKey() (plaintext, hash, prefix string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", "", err
	}
	plaintext = "whk_" + hex.EncodeToString(bytes)
	return plaintext, HashKey(plaintext), plaintext[:12], nil
}

// HashKey hashes a plaintext API key for lookup.
func HashKey(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

func (r *Repository) CreateKey(ctx context.Context, name, keyHash, keyPrefix string, allowedDomains []string) (APIKey, error) {
	var key APIKey
	err := r.pool.QueryRow(ctx, `
		INSERT INTO webhook_api_keys (name, key_hash, key_prefix, allowed_domains)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, key_hash, key_prefix, allowed_domains, is_active, created_at`,
		name, keyHash, keyPrefix, allowedDomains,
	).Scan(&key.ID, &key.Name, &key.KeyHash, &key.KeyPrefix, &key.AllowedDomains, &key.IsActive, &key.CreatedAt)
	return key, err
}

func (r *Repository) GetKeyByHash(ctx context.Context, keyHash string) (APIKey, error) {
	var key APIKey
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, key_hash, key_prefix, allowed_domains, is_active, created_at
		FROM webhook_api_keys
		WHERE key_hash = $1 AND is_active`,
		keyHash,
	).Scan(&key.ID, &key.Name, &key.KeyHash, &key.KeyPrefix, &key.AllowedDomains, &key.IsActive, &key.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return APIKey{}, ErrAPIKeyNotFound
	}
	return key, err
}

func (r *Repository) ListKeys(ctx context.Context) ([]APIKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, key_hash, key_prefix, allowed_domains, is_active, created_at
		FROM webhook_api_keys
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var key APIKey
		if err := rows.Scan(&key.ID, &key.Name, &key.KeyHash, &key.KeyPrefix, &key.AllowedDomains, &key.IsActive, &key.CreatedAt); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *Repository) RevokeKey(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE webhook_api_keys SET is_active = false WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

// RecordSubmission stores the raw capture payload for audit, tied to the lead
// it produced.
func (r *Repository) RecordSubmission(ctx context.Context, leadID uuid.UUID, channel, sourceDomain string, raw []byte) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO webhook_submissions (lead_id, channel, source_domain, raw_payload)
		VALUES ($1, $2, $3, $4)`,
		leadID, channel, sourceDomain, raw,
	)
	return err
}
