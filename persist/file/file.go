// Package file stores the registry mapping in a JSON file, optionally encrypted.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/hidal-go/dblist/base"
	"github.com/hidal-go/dblist/persist"
)

const (
	Name = "file"
)

func init() {
	persist.Register(persist.Registration{
		Registration: base.Registration{
			Name: Name, Title: "JSON file",
			Local: true,
		},
		Open: func(ctx context.Context, opts persist.Options) (persist.Provider, error) {
			return Open(opts)
		},
	})
}

var _ persist.Provider = (*File)(nil)

// File keeps the mapping in EncryptedFileName, sealed with the secret.
// FileName is a clear-text copy used for manual edits; see Open.
type File struct {
	clear  string
	sealed string
	s      *persist.Sealer
}

// Open prepares the files according to options:
// with Decrypt, an existing encrypted file is written in clear to FileName;
// with Encrypt, an existing FileName is sealed into EncryptedFileName and removed.
func Open(opts persist.Options) (*File, error) {
	if opts.FileName == "" && opts.EncryptedFileName == "" {
		return nil, errors.New("file name is not set")
	}
	s, err := persist.NewSealer(opts.Secret)
	if err != nil {
		return nil, err
	}
	f := &File{clear: opts.FileName, sealed: opts.EncryptedFileName, s: s}
	if s == nil && f.sealed != "" {
		slog.Warn("registry file is stored without encryption", "file", f.sealed)
	}
	if opts.Decrypt && f.clear != "" && f.sealed != "" {
		if err := f.decrypt(); err != nil {
			return nil, err
		}
	}
	if opts.Encrypt && f.clear != "" && f.sealed != "" {
		if err := f.encrypt(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (f *File) decrypt() error {
	ok, err := exists(f.sealed)
	if err != nil || !ok {
		return err
	}
	data, err := os.ReadFile(f.sealed)
	if err != nil {
		return err
	}
	plain, err := f.s.Open(data)
	if err != nil {
		return fmt.Errorf("decrypting %s: %w", f.sealed, err)
	}
	return writeFile(f.clear, plain)
}

func (f *File) encrypt() error {
	ok, err := exists(f.clear)
	if err != nil || !ok {
		return err
	}
	plain, err := os.ReadFile(f.clear)
	if err != nil {
		return err
	}
	if _, err := persist.Unmarshal(plain); err != nil {
		return fmt.Errorf("%s: %w", f.clear, err)
	}
	data, err := f.s.Seal(plain)
	if err != nil {
		return err
	}
	if err := writeFile(f.sealed, data); err != nil {
		return err
	}
	return os.Remove(f.clear)
}

// Read loads the encrypted file if it exists, the clear-text file otherwise.
func (f *File) Read(ctx context.Context) (persist.Mapping, error) {
	m, err := f.read()
	if err != nil {
		return nil, &persist.Error{Op: "read", Err: err}
	}
	return m, nil
}

func (f *File) read() (persist.Mapping, error) {
	if f.sealed != "" {
		ok, err := exists(f.sealed)
		if err != nil {
			return nil, err
		} else if ok {
			data, err := os.ReadFile(f.sealed)
			if err != nil {
				return nil, err
			}
			plain, err := f.s.Open(data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.sealed, err)
			}
			return persist.Unmarshal(plain)
		}
	}
	if f.clear != "" {
		data, err := os.ReadFile(f.clear)
		if errors.Is(err, fs.ErrNotExist) {
			return persist.Mapping{}, nil
		} else if err != nil {
			return nil, err
		}
		return persist.Unmarshal(data)
	}
	return persist.Mapping{}, nil
}

// Write replaces the encrypted file, or the clear-text one if no encrypted file is configured.
func (f *File) Write(ctx context.Context, m persist.Mapping) error {
	if err := f.write(m); err != nil {
		return &persist.Error{Op: "write", Err: err}
	}
	return nil
}

func (f *File) write(m persist.Mapping) error {
	plain, err := persist.Marshal(m)
	if err != nil {
		return err
	}
	if f.sealed == "" {
		return writeFile(f.clear, plain)
	}
	data, err := f.s.Seal(plain)
	if err != nil {
		return err
	}
	return writeFile(f.sealed, data)
}

func (f *File) Close() error {
	return nil
}

// writeFile replaces the file atomically.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
