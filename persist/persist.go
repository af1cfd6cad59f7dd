// Package persist defines how the registry mapping is stored between runs.
//
// A Provider reads and writes the whole mapping at once. Providers are registered
// by name and picked with Options.Backend.
package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hidal-go/dblist/base"
	"github.com/hidal-go/dblist/conn"
)

// Mapping is the registry content: dbCode to connection record.
type Mapping map[string]conn.Info

// Clone returns a deep copy of the mapping.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

// Provider is a durable store for a Mapping.
type Provider interface {
	base.Closer
	// Read loads the whole mapping. A store that was never written returns an empty mapping.
	Read(ctx context.Context) (Mapping, error)
	// Write replaces the stored mapping with m.
	Write(ctx context.Context, m Mapping) error
}

// Options configures a Provider.
type Options struct {
	// Backend is a registered provider name. Defaults to DefaultBackend.
	Backend string
	// FileName is the clear-text file.
	FileName string
	// EncryptedFileName is the encrypted file.
	EncryptedFileName string
	// Encrypt seals an existing clear-text file into the encrypted one and removes it.
	Encrypt bool
	// Decrypt writes the content of the encrypted file to the clear-text file.
	Decrypt bool
	// Secret is used to seal stored data. Data is stored in clear when it's nil.
	Secret *Secret
	// Path is a location of a local database for key-value backends.
	Path string
	// Addr and Database locate a remote database.
	Addr     string
	Database string
}

// DefaultBackend is used when Options.Backend is empty.
const DefaultBackend = "file"

var _ error = (*Error)(nil)

// Error wraps a failure of reading or writing the stored mapping.
type Error struct {
	Op  string // read, write or open
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("persist: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Marshal encodes a mapping as indented JSON.
func Marshal(m Mapping) ([]byte, error) {
	if m == nil {
		m = Mapping{}
	}
	return json.MarshalIndent(m, "", "  ")
}

// Unmarshal decodes a JSON mapping. Empty input is an empty mapping.
func Unmarshal(data []byte) (Mapping, error) {
	m := make(Mapping)
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding mapping: %w", err)
	}
	return m, nil
}
