// Package encryption provides optional at-rest encryption for promoted
// artifacts. The blob layer encrypts on the way into durable storage and
// decrypts on the way out; content checksums are always computed over
// plaintext, so encryption never changes what Verify checks.
package encryption

import "io"

// Encryptor handles encryption of artifact bytes and unlocking for
// decryption. Encryption uses the public key only, so uploads never need a
// passphrase. Decryption requires a passphrase to unlock the private key,
// producing a DecryptionContext for the session.
type Encryptor interface {
	// Setup performs one-time key generation: stores the public key in
	// plaintext and the private key encrypted with the passphrase.
	Setup(passphrase string) error

	// Encrypt encrypts data read from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key using the passphrase and returns a
	// DecryptionContext valid for the rest of the process.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether key material exists at the configured
	// paths.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory. Created by
// Encryptor.Unlock; the unlocked key is never written to disk.
type DecryptionContext interface {
	// Decrypt decrypts data read from r and writes plaintext to w.
	Decrypt(r io.Reader, w io.Writer) error
}
