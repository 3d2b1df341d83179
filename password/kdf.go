package password

import (
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
)

// ErrEmptyPassphrase is returned when a key is requested for an empty passphrase.
var ErrEmptyPassphrase = errors.New("passphrase is empty")

// KDFConfig holds Argon2id cost parameters for key derivation.
type KDFConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultKDFConfig returns parameters suitable for sealing an on-disk
// session on an interactive machine.
func DefaultKDFConfig() KDFConfig {
	return KDFConfig{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// KDF derives symmetric keys from passphrases with Argon2id.
type KDF struct {
	config KDFConfig
}

// NewKDF validates cfg and returns a KDF.
func NewKDF(cfg KDFConfig) (*KDF, error) {
	if err := validateKDFConfig(cfg); err != nil {
		return nil, err
	}
	return &KDF{config: cfg}, nil
}

// Config returns the parameters k was built with.
func (k *KDF) Config() KDFConfig { return k.config }

// NewSalt returns SaltLength random bytes.
func (k *KDF) NewSalt() ([]byte, error) {
	salt := make([]byte, k.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// DeriveKey stretches passphrase with salt into a KeyLength key. The
// passphrase bytes are used exactly as provided.
func (k *KDF) DeriveKey(passphrase []byte, salt []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	if uint32(len(salt)) < minSaltLength {
		return nil, errors.New("salt must be at least 16 bytes")
	}
	return argon2.IDKey(
		passphrase,
		salt,
		k.config.Time,
		k.config.Memory,
		k.config.Parallelism,
		k.config.KeyLength,
	), nil
}

func validateKDFConfig(cfg KDFConfig) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("kdf memory must be >= 8192 KB")
	}
	if cfg.Time < minTimeCost {
		return errors.New("kdf time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("kdf parallelism must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return errors.New("kdf salt length must be >= 16")
	}
	if cfg.KeyLength < minKeyLength {
		return errors.New("kdf key length must be >= 16")
	}
	return nil
}
