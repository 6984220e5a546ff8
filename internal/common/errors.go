// Package common defines shared constants and sentinel errors used across
// AcqBridge components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Vault setup lifecycle.
	ErrAlreadySet      = errors.New("password already set")
	ErrNoPasswordSet   = errors.New("no password set")
	ErrIncompleteSetup = errors.New("incomplete password record")

	// Unlock / decrypt failures.
	ErrWrongPassword        = errors.New("wrong password")
	ErrAuthenticationFailed = errors.New("authentication failed")

	// Session errors.
	ErrLocked       = errors.New("session locked")
	ErrNoCredential = errors.New("no stored credential")
)
