package encryption

import (
	"bytes"
	"path/filepath"
	"testing"

	"resourcehub/internal/config"
)

func newAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	dir := t.TempDir()
	return NewAgeEncryptor(config.EncryptionConfig{
		Type:           "age",
		PublicKeyPath:  filepath.Join(dir, "keys", "public.txt"),
		PrivateKeyPath: filepath.Join(dir, "keys", "private.age"),
	})
}

func TestAgeRoundTrip(t *testing.T) {
	enc := newAgeEncryptor(t)

	if enc.IsConfigured() {
		t.Fatal("IsConfigured = true before Setup")
	}
	if err := enc.Setup("correct horse"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if !enc.IsConfigured() {
		t.Fatal("IsConfigured = false after Setup")
	}

	plaintext := []byte("document bytes to protect")
	var ciphertext bytes.Buffer
	if err := enc.Encrypt(bytes.NewReader(plaintext), &ciphertext); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if bytes.Contains(ciphertext.Bytes(), plaintext) {
		t.Error("ciphertext contains plaintext")
	}

	dctx, err := enc.Unlock("correct horse")
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	var decrypted bytes.Buffer
	if err := dctx.Decrypt(bytes.NewReader(ciphertext.Bytes()), &decrypted); err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted.Bytes(), plaintext) {
		t.Error("decrypted output differs from plaintext")
	}
}

func TestAgeWrongPassphrase(t *testing.T) {
	enc := newAgeEncryptor(t)
	if err := enc.Setup("right"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	if _, err := enc.Unlock("wrong"); err == nil {
		t.Fatal("Unlock succeeded with wrong passphrase")
	}
}

func TestAgeUnlockWithoutSetup(t *testing.T) {
	enc := newAgeEncryptor(t)
	if _, err := enc.Unlock("anything"); err == nil {
		t.Fatal("Unlock succeeded without key material")
	}
}

func TestTestEncryptorRoundTrip(t *testing.T) {
	enc := NewTestEncryptor()

	var ciphertext bytes.Buffer
	if err := enc.Encrypt(bytes.NewReader([]byte("data")), &ciphertext); err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if !bytes.HasPrefix(ciphertext.Bytes(), testHeader) {
		t.Error("ciphertext missing test header")
	}

	dctx, err := enc.Unlock("")
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	var out bytes.Buffer
	if err := dctx.Decrypt(bytes.NewReader(ciphertext.Bytes()), &out); err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if out.String() != "data" {
		t.Errorf("decrypted = %q", out.String())
	}

	// Plaintext without the header must be rejected.
	if err := dctx.Decrypt(bytes.NewReader([]byte("no header here")), &out); err == nil {
		t.Error("Decrypt accepted data without header")
	}
}
