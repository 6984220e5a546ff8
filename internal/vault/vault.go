// Package vault owns the persisted credential-protection records: the
// password-derived key-encryption-key setup and the encrypted API
// credential. All multi-field writes go through a single transaction so a
// partially written record is never observable.
package vault

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/acqbridge/internal/common"
	"github.com/dmitrijs2005/acqbridge/internal/cryptox"
	"github.com/dmitrijs2005/acqbridge/internal/dbx"
	"github.com/dmitrijs2005/acqbridge/internal/settings"
)

var b64 = base64.RawURLEncoding

type Vault struct {
	db *sql.DB
}

func New(db *sql.DB) *Vault {
	return &Vault{db: db}
}

func (v *Vault) repo() settings.Repository {
	return settings.NewSQLiteRepository(v.db)
}

// loadPasswordRecord reads the three password-setup fields. It returns
// common.ErrNoPasswordSet when none of them exist and
// common.ErrIncompleteSetup when only some do (or when a field fails to
// decode), so callers can distinguish "never set up" from "corrupt".
func (v *Vault) loadPasswordRecord(ctx context.Context) (*PasswordRecord, error) {
	repo := v.repo()

	saltRaw, err := repo.Get(ctx, KeyPasswordSalt)
	if err != nil {
		return nil, err
	}
	itersRaw, err := repo.Get(ctx, KeyKDFIterations)
	if err != nil {
		return nil, err
	}
	verifierRaw, err := repo.Get(ctx, KeyKEKVerifier)
	if err != nil {
		return nil, err
	}

	if saltRaw == nil && itersRaw == nil && verifierRaw == nil {
		return nil, common.ErrNoPasswordSet
	}
	if saltRaw == nil || itersRaw == nil || verifierRaw == nil {
		return nil, common.ErrIncompleteSetup
	}

	salt, err := b64.DecodeString(string(saltRaw))
	if err != nil {
		return nil, common.ErrIncompleteSetup
	}
	iterations, err := strconv.Atoi(string(itersRaw))
	if err != nil || iterations <= 0 {
		return nil, common.ErrIncompleteSetup
	}
	verifier, err := b64.DecodeString(string(verifierRaw))
	if err != nil || len(verifier) != cryptox.KeySize {
		return nil, common.ErrIncompleteSetup
	}

	return &PasswordRecord{Salt: salt, Iterations: iterations, Verifier: verifier}, nil
}

// loadCredentialRecord reads the encrypted-credential fields. A pair with
// either half missing is treated the same as no credential at all.
func (v *Vault) loadCredentialRecord(ctx context.Context) (*CredentialRecord, error) {
	repo := v.repo()

	ctRaw, err := repo.Get(ctx, KeyCredCiphertext)
	if err != nil {
		return nil, err
	}
	nonceRaw, err := repo.Get(ctx, KeyCredNonce)
	if err != nil {
		return nil, err
	}

	if ctRaw == nil || nonceRaw == nil {
		return nil, common.ErrNoCredential
	}

	ciphertext, err := b64.DecodeString(string(ctRaw))
	if err != nil {
		return nil, common.ErrAuthenticationFailed
	}
	nonce, err := b64.DecodeString(string(nonceRaw))
	if err != nil {
		return nil, common.ErrAuthenticationFailed
	}

	rec := &CredentialRecord{Ciphertext: ciphertext, Nonce: nonce}

	if lenRaw, err := repo.Get(ctx, KeyCredPlaintextLen); err == nil && lenRaw != nil {
		if n, err := strconv.Atoi(string(lenRaw)); err == nil {
			rec.PlaintextLen = n
		}
	}

	return rec, nil
}

// SetPassword performs first-time password setup: it generates a fresh salt,
// derives the key-encryption-key and persists salt, iteration count and
// verifier atomically. If a complete record already exists it fails with
// common.ErrAlreadySet; there is no rotation path. An incomplete (corrupt)
// record is overwritten.
//
// Note: the stored verifier is the raw derived key itself, reused directly
// as the credential-encryption key. This keeps password-free auto-unlock
// working but means anyone with access to the store can decrypt the
// credential without the password. Deliberately preserved from the original
// design; see DESIGN.md before changing.
func (v *Vault) SetPassword(ctx context.Context, password []byte) error {
	_, err := v.loadPasswordRecord(ctx)
	if err == nil {
		return common.ErrAlreadySet
	}
	if !errors.Is(err, common.ErrNoPasswordSet) && !errors.Is(err, common.ErrIncompleteSetup) {
		return err
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	iterations := cryptox.DefaultKDFIterations
	kek := cryptox.DeriveKey(password, salt, iterations)
	defer common.WipeByteArray(kek)

	return dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := settings.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, KeyPasswordSalt, []byte(b64.EncodeToString(salt))); err != nil {
			return err
		}
		if err := repo.Set(ctx, KeyKDFIterations, []byte(strconv.Itoa(iterations))); err != nil {
			return err
		}
		return repo.Set(ctx, KeyKEKVerifier, []byte(b64.EncodeToString(kek)))
	})
}

// VerifyPassword re-derives the key-encryption-key from the supplied
// password and the stored salt/iterations and compares it against the
// stored verifier in constant time. On success it returns the derived key;
// the caller owns wiping it.
func (v *Vault) VerifyPassword(ctx context.Context, password []byte) ([]byte, error) {
	rec, err := v.loadPasswordRecord(ctx)
	if err != nil {
		return nil, err
	}

	kek := cryptox.DeriveKey(password, rec.Salt, rec.Iterations)
	if !cryptox.KeysEqual(kek, rec.Verifier) {
		common.WipeByteArray(kek)
		return nil, common.ErrWrongPassword
	}
	return kek, nil
}

// SaveCredential verifies the password, encrypts the credential under the
// derived key and persists ciphertext, nonce and plaintext length
// atomically. Nothing is persisted on a wrong password.
func (v *Vault) SaveCredential(ctx context.Context, plaintext, password []byte) error {
	kek, err := v.VerifyPassword(ctx, password)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(kek)

	ciphertext, nonce, err := cryptox.Encrypt(kek, plaintext)
	if err != nil {
		return fmt.Errorf("encrypt credential: %w", err)
	}

	return dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := settings.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, KeyCredCiphertext, []byte(b64.EncodeToString(ciphertext))); err != nil {
			return err
		}
		if err := repo.Set(ctx, KeyCredNonce, []byte(b64.EncodeToString(nonce))); err != nil {
			return err
		}
		return repo.Set(ctx, KeyCredPlaintextLen, []byte(strconv.Itoa(len(plaintext))))
	})
}

// DecryptCredential decrypts the stored credential under the given key.
// Returns common.ErrNoCredential when nothing is stored and
// common.ErrAuthenticationFailed when the data does not authenticate.
func (v *Vault) DecryptCredential(ctx context.Context, key []byte) ([]byte, error) {
	rec, err := v.loadCredentialRecord(ctx)
	if err != nil {
		return nil, err
	}
	return cryptox.Decrypt(key, rec.Ciphertext, rec.Nonce)
}

// VerifierKey returns the persisted verifier bytes, which double as the
// credential-encryption key (see SetPassword). Used by password-free
// auto-unlock.
func (v *Vault) VerifierKey(ctx context.Context) ([]byte, error) {
	rec, err := v.loadPasswordRecord(ctx)
	if err != nil {
		return nil, err
	}
	return rec.Verifier, nil
}

// HasPassword reports whether a complete password record exists.
func (v *Vault) HasPassword(ctx context.Context) (bool, error) {
	_, err := v.loadPasswordRecord(ctx)
	if errors.Is(err, common.ErrNoPasswordSet) || errors.Is(err, common.ErrIncompleteSetup) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// HasEncryptedCredential reports whether a stored ciphertext/nonce pair
// exists. No decryption is attempted.
func (v *Vault) HasEncryptedCredential(ctx context.Context) (bool, error) {
	repo := v.repo()

	ct, err := repo.Get(ctx, KeyCredCiphertext)
	if err != nil {
		return false, err
	}
	nonce, err := repo.Get(ctx, KeyCredNonce)
	if err != nil {
		return false, err
	}
	return ct != nil && nonce != nil, nil
}

// CredentialLength returns the stored plaintext length for masked display,
// or 0 when no credential is stored.
func (v *Vault) CredentialLength(ctx context.Context) (int, error) {
	lenRaw, err := v.repo().Get(ctx, KeyCredPlaintextLen)
	if err != nil {
		return 0, err
	}
	if lenRaw == nil {
		return 0, nil
	}
	n, err := strconv.Atoi(string(lenRaw))
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Clear removes the password and credential records unconditionally, in one
// transaction. Clearing an empty vault is not an error. The region setting
// is left untouched.
func (v *Vault) Clear(ctx context.Context) error {
	keys := []string{
		KeyPasswordSalt, KeyKDFIterations, KeyKEKVerifier,
		KeyCredCiphertext, KeyCredNonce, KeyCredPlaintextLen,
	}

	return dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := settings.NewSQLiteRepository(tx)
		for _, key := range keys {
			if err := repo.Delete(ctx, key); err != nil {
				return err
			}
		}
		return nil
	})
}
