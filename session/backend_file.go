package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrEthical07/goAuthClient/password"
	"github.com/fsnotify/fsnotify"
)

const (
	saltFileName  = ".salt"
	keySeparator  = ":"
	fileSeparator = "~"
)

// ErrInvalidKey is returned for keys that cannot be mapped to a file name.
var ErrInvalidKey = errors.New("invalid backend key")

// FileOptions configures a FileBackend.
type FileOptions struct {
	Dir string
	// Passphrase enables sealing. Empty stores blobs in plaintext with
	// owner-only permissions.
	Passphrase string
	KDF        password.KDFConfig
	Logger     *slog.Logger
}

// FileBackend stores one file per key inside a directory. Writes go through
// a temp file and a rename so readers never observe a torn record, and
// several processes pointed at the same directory share one session.
type FileBackend struct {
	dir    string
	sealer *Sealer
	logger *slog.Logger
}

// OpenFileBackend prepares dir and, when a passphrase is set, derives the
// sealing key from it and the directory's persistent salt.
func OpenFileBackend(opts FileOptions) (*FileBackend, error) {
	if opts.Dir == "" {
		return nil, errors.New("file backend: dir is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("file backend: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fb := &FileBackend{dir: opts.Dir, logger: logger}

	if opts.Passphrase != "" {
		cfg := opts.KDF
		if cfg == (password.KDFConfig{}) {
			cfg = password.DefaultKDFConfig()
		}
		kdf, err := password.NewKDF(cfg)
		if err != nil {
			return nil, fmt.Errorf("file backend: %w", err)
		}
		salt, err := fb.loadOrCreateSalt(kdf)
		if err != nil {
			return nil, err
		}
		key, err := kdf.DeriveKey([]byte(opts.Passphrase), salt)
		if err != nil {
			return nil, fmt.Errorf("file backend: %w", err)
		}
		fb.sealer, err = NewSealer(key)
		if err != nil {
			return nil, err
		}
	}
	return fb, nil
}

// Sealed reports whether blobs are encrypted at rest.
func (f *FileBackend) Sealed() bool { return f.sealer != nil }

func (f *FileBackend) loadOrCreateSalt(kdf *password.KDF) ([]byte, error) {
	path := filepath.Join(f.dir, saltFileName)
	salt, err := os.ReadFile(path)
	if err == nil {
		return salt, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("file backend: read salt: %w", err)
	}
	salt, err = kdf.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("file backend: salt: %w", err)
	}
	if err := writeFileAtomic(path, salt); err != nil {
		return nil, fmt.Errorf("file backend: write salt: %w", err)
	}
	return salt, nil
}

func (f *FileBackend) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, fileSeparator+`/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(f.dir, strings.ReplaceAll(key, keySeparator, fileSeparator)), nil
}

func keyFromFileName(name string) (string, bool) {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return "", false
	}
	return strings.ReplaceAll(base, fileSeparator, keySeparator), true
}

func (f *FileBackend) Load(_ context.Context, key string) ([]byte, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	if f.sealer == nil {
		return data, nil
	}
	return f.sealer.Open(key, data)
}

func (f *FileBackend) Save(_ context.Context, key string, value []byte) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if f.sealer != nil {
		value, err = f.sealer.Seal(key, value)
		if err != nil {
			return err
		}
	}
	return writeFileAtomic(p, value)
}

func (f *FileBackend) Delete(_ context.Context, key string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Watch calls fn for every key written, renamed into place or removed by
// any process until ctx is done. It blocks.
func (f *FileBackend) Watch(ctx context.Context, fn func(key string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(f.dir); err != nil {
		return fmt.Errorf("file backend: watch %s: %w", f.dir, err)
	}

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			key, ok := keyFromFileName(event.Name)
			if !ok {
				continue
			}
			f.logger.Debug("session file changed", "file", event.Name, "op", event.Op.String())
			fn(key)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.logger.Error("session watcher error", "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
