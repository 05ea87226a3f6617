// Package secret manages the bearer token that guards the daemon's
// JSON-RPC endpoints. The token lives in the operating system keyring and
// falls back to a 0600 file in the data directory when no keyring service
// is reachable.
package secret

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"
)

const (
	tokenBytes   = 32
	fileMode     = 0600
	defaultApp   = "muezzin"
	defaultField = "rpc-token"
)

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
	randRead      = rand.Read
)

// ErrInvalidToken is returned when a stored token is not valid hex.
var ErrInvalidToken = errors.New("stored rpc token is malformed")

// Store reads and creates the RPC token.
type Store struct {
	AppName  string
	KeyField string

	fs   afero.Fs
	path string
}

// NewStore returns a store whose fallback file is path.
func NewStore(fsys afero.Fs, path string) *Store {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Store{AppName: defaultApp, KeyField: defaultField, fs: fsys, path: path}
}

// Token returns the stored token, generating and persisting one on first
// use.
func (s *Store) Token() (string, error) {
	tok, err := keyringGet(s.AppName, s.KeyField)
	switch {
	case err == nil:
		return validate(tok)
	case errors.Is(err, keyring.ErrNotFound):
		// A token in the fallback file wins over a fresh one so clients
		// started before the keyring came up keep working.
		if tok, ferr := s.readFile(); ferr == nil {
			return tok, nil
		}
		tok, err := generate()
		if err != nil {
			return "", err
		}
		if err := keyringSet(s.AppName, s.KeyField, tok); err != nil {
			return s.fileToken()
		}
		return tok, nil
	default:
		return s.fileToken()
	}
}

// Reset removes the token from both backends.
func (s *Store) Reset() error {
	var errs []error
	if err := keyringDelete(s.AppName, s.KeyField); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		errs = append(errs, err)
	}
	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Store) fileToken() (string, error) {
	tok, err := s.readFile()
	if err == nil {
		return tok, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	tok, err = generate()
	if err != nil {
		return "", err
	}
	if err := s.writeFile(tok); err != nil {
		return "", err
	}
	return tok, nil
}

func (s *Store) readFile() (string, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return "", err
	}
	return validate(string(data))
}

// writeFile writes through a temp file and rename.
func (s *Store) writeFile(tok string) error {
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create secret dir: %w", err)
	}
	tmp, err := afero.TempFile(s.fs, dir, ".rpc.secret.tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(tok); err != nil {
		tmp.Close()
		s.fs.Remove(tmpPath)
		return fmt.Errorf("write token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := s.fs.Chmod(tmpPath, fileMode); err != nil {
		s.fs.Remove(tmpPath)
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		s.fs.Remove(tmpPath)
		return fmt.Errorf("rename token file: %w", err)
	}
	return nil
}

func generate() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := randRead(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func validate(tok string) (string, error) {
	tok = strings.TrimSpace(tok)
	b, err := hex.DecodeString(tok)
	if err != nil || len(b) != tokenBytes {
		return "", ErrInvalidToken
	}
	return tok, nil
}
