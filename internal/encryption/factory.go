package encryption

import (
	"fmt"

	"resourcehub/internal/config"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration
// type. Returns nil when encryption is disabled.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
