// Package session holds the unlocked API credential in memory for the
// lifetime of the host process. The manager is the sole owner of the
// plaintext; no other component may cache it.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/acqbridge/internal/common"
	"github.com/dmitrijs2005/acqbridge/internal/vault"
)

// Manager is the process-wide credential session. It starts locked; a
// successful Unlock or AutoUnlock moves it to unlocked, Lock moves it back.
// Failed attempts leave the state unchanged.
//
// Constructed and injected by the composition root rather than held as a
// package-level variable, to keep handlers testable.
type Manager struct {
	mu        sync.Mutex
	vault     *vault.Vault
	plaintext []byte
}

func NewManager(v *vault.Vault) *Manager {
	return &Manager{vault: v}
}

// Unlock verifies the password against the stored verifier and, if a
// credential record exists, decrypts it into the session. Unlocking
// succeeds even when no credential has been saved yet.
func (m *Manager) Unlock(ctx context.Context, password []byte) error {
	kek, err := m.vault.VerifyPassword(ctx, password)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(kek)

	plaintext, err := m.vault.DecryptCredential(ctx, kek)
	if err != nil {
		if errors.Is(err, common.ErrNoCredential) {
			return nil
		}
		return err
	}

	m.set(plaintext)
	return nil
}

// AutoUnlock attempts to materialize the credential without a password by
// using the persisted verifier bytes directly as the decryption key. This
// works whenever a credential exists at all, because the verifier is the
// raw key-encryption-key (see vault.SetPassword). Reports whether the
// session now holds a credential.
func (m *Manager) AutoUnlock(ctx context.Context) bool {
	if m.IsUnlocked() {
		return true
	}

	key, err := m.vault.VerifierKey(ctx)
	if err != nil {
		return false
	}

	plaintext, err := m.vault.DecryptCredential(ctx, key)
	if err != nil {
		return false
	}

	m.set(plaintext)
	return true
}

// GetUsableCredential returns the in-memory credential, attempting a single
// auto-unlock if the session is locked.
func (m *Manager) GetUsableCredential(ctx context.Context) (string, bool) {
	if !m.AutoUnlock(ctx) {
		return "", false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.plaintext), true
}

// Reveal returns the credential for UI display, attempting auto-unlock
// first. Fails with common.ErrLocked when no credential can be produced.
func (m *Manager) Reveal(ctx context.Context) (string, error) {
	value, ok := m.GetUsableCredential(ctx)
	if !ok {
		return "", common.ErrLocked
	}
	return value, nil
}

// Lock purges the in-memory credential. Idempotent.
func (m *Manager) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	common.WipeByteArray(m.plaintext)
	m.plaintext = nil
}

// IsUnlocked reports whether the session currently holds a credential.
func (m *Manager) IsUnlocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plaintext != nil
}

func (m *Manager) set(plaintext []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	common.WipeByteArray(m.plaintext)
	m.plaintext = plaintext
}
