package password

import (
	"bytes"
	"errors"
	"testing"
)

func fastKDFConfig() KDFConfig {
	return KDFConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	kdf, err := NewKDF(fastKDFConfig())
	if err != nil {
		t.Fatalf("NewKDF error: %v", err)
	}
	salt, err := kdf.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt error: %v", err)
	}

	a, err := kdf.DeriveKey([]byte("correct horse"), salt)
	if err != nil {
		t.Fatalf("DeriveKey error: %v", err)
	}
	b, err := kdf.DeriveKey([]byte("correct horse"), salt)
	if err != nil {
		t.Fatalf("DeriveKey error: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("expected identical keys for identical inputs")
	}
	if len(a) != 32 {
		t.Fatalf("key length = %d, want 32", len(a))
	}

	c, err := kdf.DeriveKey([]byte("battery staple"), salt)
	if err != nil {
		t.Fatalf("DeriveKey error: %v", err)
	}
	if bytes.Equal(a, c) {
		t.Fatal("expected different passphrases to derive different keys")
	}
}

func TestDeriveKeyRejectsBadInput(t *testing.T) {
	kdf, err := NewKDF(fastKDFConfig())
	if err != nil {
		t.Fatalf("NewKDF error: %v", err)
	}
	if _, err := kdf.DeriveKey(nil, make([]byte, 16)); !errors.Is(err, ErrEmptyPassphrase) {
		t.Fatalf("expected ErrEmptyPassphrase, got %v", err)
	}
	if _, err := kdf.DeriveKey([]byte("x"), []byte("short")); err == nil {
		t.Fatal("expected short salt to be rejected")
	}
}

func TestNewKDFRejectsWeakConfig(t *testing.T) {
	cases := []KDFConfig{
		{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		{Memory: 8192, Time: 0, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		{Memory: 8192, Time: 1, Parallelism: 0, SaltLength: 16, KeyLength: 32},
		{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 8, KeyLength: 32},
		{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 8},
	}
	for i, cfg := range cases {
		if _, err := NewKDF(cfg); err == nil {
			t.Fatalf("case %d: expected config rejection", i)
		}
	}
}
