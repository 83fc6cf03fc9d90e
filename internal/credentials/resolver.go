package credentials

import (
	"context"
	"strings"

	"github.com/cloudmasa/engine/internal/errdefs"
	"github.com/cloudmasa/engine/internal/store"
)

// Credential is a decrypted, in-memory cloud credential. It must never
// be persisted or logged.
type Credential struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// MaskToken hides all but the outer characters of a secret, for
// status displays and persisted hints.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + "****" + token[len(token)-4:]
}

// AccountSource supplies stored account records.
type AccountSource interface {
	GetAccount(id string) (*store.AccountRecord, error)
}

// Resolver decrypts account records into usable credentials.
type Resolver struct {
	accounts AccountSource
	cipher   *Cipher
}

// NewResolver wires a Resolver to its account source and cipher.
func NewResolver(accounts AccountSource, cipher *Cipher) *Resolver {
	return &Resolver{accounts: accounts, cipher: cipher}
}

// Resolve looks up the account and decrypts its credential material.
// A missing account or a payload that fails authentication yields a
// credential error; the ciphertext and plaintext are never included
// in the error or any log line.
func (r *Resolver) Resolve(ctx context.Context, accountID string) (*Credential, error) {
	if accountID == "" {
		return nil, errdefs.Credential("account reference is empty", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, err := r.accounts.GetAccount(accountID)
	if err != nil {
		if errdefs.IsKind(err, errdefs.KindNotFound) {
			return nil, errdefs.Credential("account "+accountID+" not found", err)
		}
		return nil, errdefs.Credential("account "+accountID+" lookup failed", err)
	}

	accessKey, err := r.cipher.Decrypt(rec.AccessKeyID)
	if err != nil {
		return nil, errdefs.Credential("account "+accountID+": access key decryption failed", err)
	}
	secretKey, err := r.cipher.Decrypt(rec.SecretAccessKey)
	if err != nil {
		return nil, errdefs.Credential("account "+accountID+": secret key decryption failed", err)
	}

	return &Credential{
		AccountID:       rec.ID,
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
		Region:          rec.Region,
	}, nil
}
