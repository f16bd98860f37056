// Package pii implements the PII Vault (spec §4.C): an encrypted,
// expiring store mapping a contact hash to the raw channel address it
// was derived from, used solely to deliver the outbound reply a
// conversation turn just produced.
package pii

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marcioluisms/hotelly2-sub001/internal/apperr"
)

// Vault encrypts and retrieves contact refs under a single AES-256-GCM
// key loaded once at startup. Key rotation is out of scope (spec §9).
type Vault struct {
	pool *pgxpool.Pool
	gcm  cipher.AEAD
}

// New builds a Vault from a 32-byte key given as a hex string (64 hex
// characters), matching the CONTACT_REFS_KEY environment contract.
func New(pool *pgxpool.Pool, keyHex string) (*Vault, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != 32 {
		return nil, apperr.ConfigurationMissing("CONTACT_REFS_KEY must be 32 bytes hex (64 hex chars)")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperr.ConfigurationMissing(fmt.Sprintf("failed to build AES cipher: %v", err))
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperr.ConfigurationMissing(fmt.Sprintf("failed to build AES-GCM: %v", err))
	}
	return &Vault{pool: pool, gcm: gcm}, nil
}

func (v *Vault) encrypt(plaintext string) (string, error) {
	nonce := make([]byte, v.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ciphertext := v.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (v *Vault) decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	nonceSize := v.gcm.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("pii: ciphertext too short")
	}
	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := v.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// DefaultTTL is used when Store is not given an explicit ttl, covering
// async payment flows that may take longer than a single conversation
// turn to resolve.
const DefaultTTL = 24 * time.Hour

// Store upserts an encrypted contact ref keyed by (property, channel,
// hash), refreshing both ciphertext and expiry on every call.
func (v *Vault) Store(ctx context.Context, tx pgx.Tx, propertyID, channel, contactHash, address string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	encrypted, err := v.encrypt(address)
	if err != nil {
		return apperr.Wrap(apperr.KindInventoryConsistency, "pii_encrypt_failed", "failed to encrypt contact ref", err)
	}
	expiresAt := time.Now().UTC().Add(ttl)

	exec := func(ctx context.Context, sql string, args ...any) error {
		var err error
		if tx != nil {
			_, err = tx.Exec(ctx, sql, args...)
		} else {
			_, err = v.pool.Exec(ctx, sql, args...)
		}
		return err
	}

	return exec(ctx, `
		INSERT INTO contact_refs (property_id, channel, contact_hash, address_enc, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (property_id, channel, contact_hash) DO UPDATE
		SET address_enc = EXCLUDED.address_enc, expires_at = EXCLUDED.expires_at
	`, propertyID, channel, contactHash, encrypted, expiresAt)
}

// Get decrypts and returns the raw address for (property, channel,
// hash) if the row exists and has not expired. It is the only function
// in the system permitted to produce a decrypted address, and it must
// be called only from the outbound-reply task per spec §4.C.
func (v *Vault) Get(ctx context.Context, propertyID, channel, contactHash string) (string, bool, error) {
	var encrypted string
	err := v.pool.QueryRow(ctx, `
		SELECT address_enc FROM contact_refs
		WHERE property_id = $1 AND channel = $2 AND contact_hash = $3 AND expires_at > now()
	`, propertyID, channel, contactHash).Scan(&encrypted)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	plaintext, err := v.decrypt(encrypted)
	if err != nil {
		return "", false, apperr.Wrap(apperr.KindInventoryConsistency, "pii_decrypt_failed", "failed to decrypt contact ref", err)
	}
	return plaintext, true, nil
}

// Cleanup removes all expired contact refs and returns the number of
// rows deleted. Intended to run periodically out of band (cron/task).
func (v *Vault) Cleanup(ctx context.Context) (int64, error) {
	tag, err := v.pool.Exec(ctx, `DELETE FROM contact_refs WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
