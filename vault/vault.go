// Package vault persists credential files encrypted-at-rest in a remote hub
// repository.
//
// Objects live encrypted in the hub and are decrypted to local working files
// under the configured mirror directory. A decrypted credential never leaves
// the local filesystem: Persist only ever uploads ciphertext.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fernet/fernet-go"
)

// ErrNotFound indicates the named credential does not exist in the hub.
// Expected on first run; callers fall through to a fresh authorization flow.
var ErrNotFound = errors.New("vault: credential not found")

// DecryptError indicates a blob could not be decrypted: wrong key or
// corrupt ciphertext. Fatal, surfaced to the caller.
type DecryptError struct {
	// Name is the object name that failed to decrypt
	Name string
}

// Error returns a string representation of the decryption error.
func (e *DecryptError) Error() string {
	return fmt.Sprintf("vault: decrypt %s: invalid key or corrupt blob", e.Name)
}

// StoreError wraps vault errors with operation context.
type StoreError struct {
	// Op is the operation that failed ("fetch", "persist").
	Op string
	// Name is the object name if applicable.
	Name string
	// Err is the underlying error.
	Err error
}

// Error returns a string representation of the store error.
func (e *StoreError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("vault: %s %s: %v", e.Op, e.Name, e.Err)
	}
	return fmt.Sprintf("vault: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StoreError) Unwrap() error { return e.Err }

// ObjectStore is the remote whole-object repository the vault mirrors.
// Download must return an error satisfying errors.Is(err, hub.ErrNotFound)
// semantics via the NotFound classifier passed to New.
type ObjectStore interface {
	// Download fetches the named object's raw bytes.
	Download(ctx context.Context, name string) ([]byte, error)
	// Upload stores data under the named object, overwriting prior versions.
	Upload(ctx context.Context, name string, data []byte) error
}

// Store encrypts, uploads, downloads, and decrypts credential files.
type Store struct {
	remote ObjectStore
	key    *fernet.Key
	dir    string

	// isNotFound classifies remote download errors as the expected
	// missing-object case.
	isNotFound func(error) bool
}

// New creates a credential store writing decrypted working files under dir.
// key is a base64 Fernet key. isNotFound classifies remote errors as the
// missing-object case (e.g. func(err error) bool { return errors.Is(err, hub.ErrNotFound) }).
func New(remote ObjectStore, key string, dir string, isNotFound func(error) bool) (*Store, error) {
	if key == "" {
		return nil, fmt.Errorf("vault: encryption key is required")
	}
	k, err := fernet.DecodeKey(key)
	if err != nil {
		return nil, fmt.Errorf("vault: decode encryption key: %w", err)
	}
	if isNotFound == nil {
		isNotFound = func(error) bool { return false }
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("vault: create %s: %w", dir, err)
	}

	return &Store{remote: remote, key: k, dir: dir, isNotFound: isNotFound}, nil
}

// Fetch downloads the named encrypted object, decrypts it, writes the
// plaintext to a local working file, and returns that file's path.
// Returns ErrNotFound if the object does not exist remotely (first-run case)
// and *DecryptError if the key is wrong or the blob is corrupt.
func (s *Store) Fetch(ctx context.Context, name string) (string, error) {
	blob, err := s.remote.Download(ctx, name)
	if err != nil {
		if s.isNotFound(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", &StoreError{Op: "fetch", Name: name, Err: err}
	}

	plaintext := fernet.VerifyAndDecrypt(blob, 0, []*fernet.Key{s.key})
	if plaintext == nil {
		return "", &DecryptError{Name: name}
	}

	localPath := filepath.Join(s.dir, name)
	if err := os.WriteFile(localPath, plaintext, 0o600); err != nil {
		return "", &StoreError{Op: "fetch", Name: name, Err: err}
	}

	log.Printf("vault: fetched and decrypted %s", name)
	return localPath, nil
}

// Persist encrypts each local file and uploads it under its base name,
// overwriting the prior remote version. There is no transactionality across
// files: the first failure aborts and a partial upload is possible; callers
// retry the whole set.
func (s *Store) Persist(ctx context.Context, paths ...string) error {
	for _, path := range paths {
		plaintext, err := os.ReadFile(path)
		if err != nil {
			return &StoreError{Op: "persist", Name: filepath.Base(path), Err: err}
		}

		blob, err := fernet.EncryptAndSign(plaintext, s.key)
		if err != nil {
			return &StoreError{Op: "persist", Name: filepath.Base(path), Err: err}
		}

		name := filepath.Base(path)
		if err := s.remote.Upload(ctx, name, blob); err != nil {
			return &StoreError{Op: "persist", Name: name, Err: err}
		}
	}

	log.Printf("vault: encrypted and persisted %d file(s)", len(paths))
	return nil
}

// Dir returns the local working directory for decrypted files.
func (s *Store) Dir() string { return s.dir }
