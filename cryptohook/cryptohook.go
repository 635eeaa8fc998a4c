// Package cryptohook defines the authentication crypto capability the
// session controller invokes during its optional auth handshake. Cipher
// internals are explicitly out of scope for the protocol core; this
// package only fixes the shape of the collaborator.
package cryptohook

import "errors"

// ErrAuthDisabled is returned by Disabled's methods. A session configured
// without authentication must never reach the auth handshake, so any call
// here indicates a wiring bug rather than a device-side failure.
var ErrAuthDisabled = errors.New("cryptohook: authentication disabled")

// KeyMutation describes a single-byte mutation applied to a key before a
// Decrypt call, e.g. the response-decryption variant that sets index 1 to
// 'X' (0x58).
type KeyMutation struct {
	Index byte
	Value byte
}

// Crypto is the opaque block-cipher capability the session controller's
// auth handshake is built on. Keys are opaque to the core: it only ever
// supplies a key selector, never a raw key.
type Crypto interface {
	// Encrypt encrypts a 16-byte block under the key identified by
	// keySelector.
	Encrypt(keySelector byte, block [16]byte) ([16]byte, error)

	// Decrypt decrypts a 16-byte block under the key identified by
	// keySelector, first applying mutate to the key if non-nil.
	Decrypt(keySelector byte, mutate *KeyMutation, block [16]byte) ([16]byte, error)
}

// Disabled is a Crypto that always fails. It's the default collaborator
// for sessions configured without authentication, so the auth handshake
// fails fast instead of silently no-op-ing if it's ever reached.
type Disabled struct{}

func (Disabled) Encrypt(byte, [16]byte) ([16]byte, error) {
	return [16]byte{}, ErrAuthDisabled
}

func (Disabled) Decrypt(byte, *KeyMutation, [16]byte) ([16]byte, error) {
	return [16]byte{}, ErrAuthDisabled
}
