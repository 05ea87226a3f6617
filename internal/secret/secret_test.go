package secret

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"
)

// fakeKeyring swaps the package keyring functions for an in-memory map.
func fakeKeyring(t *testing.T, unavailable bool) map[string]string {
	t.Helper()
	origSet, origGet, origDelete := keyringSet, keyringGet, keyringDelete
	t.Cleanup(func() {
		keyringSet, keyringGet, keyringDelete = origSet, origGet, origDelete
	})

	store := map[string]string{}
	errUnavailable := errors.New("dbus: no session bus")
	keyringSet = func(app, key, value string) error {
		if unavailable {
			return errUnavailable
		}
		store[app+"/"+key] = value
		return nil
	}
	keyringGet = func(app, key string) (string, error) {
		if unavailable {
			return "", errUnavailable
		}
		v, ok := store[app+"/"+key]
		if !ok {
			return "", keyring.ErrNotFound
		}
		return v, nil
	}
	keyringDelete = func(app, key string) error {
		if _, ok := store[app+"/"+key]; !ok {
			return keyring.ErrNotFound
		}
		delete(store, app+"/"+key)
		return nil
	}
	return store
}

func TestToken_KeyringGeneratesOnce(t *testing.T) {
	kr := fakeKeyring(t, false)
	fsys := afero.NewMemMapFs()
	s := NewStore(fsys, "/data/rpc.secret")

	first, err := s.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if len(first) != 2*tokenBytes {
		t.Fatalf("token length %d", len(first))
	}
	if kr["muezzin/rpc-token"] != first {
		t.Fatal("token not stored in keyring")
	}
	second, err := s.Token()
	if err != nil || second != first {
		t.Fatalf("second Token = %q, %v", second, err)
	}
	if ok, _ := afero.Exists(fsys, "/data/rpc.secret"); ok {
		t.Fatal("fallback file written while keyring works")
	}
}

func TestToken_FileFallback(t *testing.T) {
	fakeKeyring(t, true)
	fsys := afero.NewMemMapFs()
	s := NewStore(fsys, "/data/rpc.secret")

	first, err := s.Token()
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	data, err := afero.ReadFile(fsys, "/data/rpc.secret")
	if err != nil {
		t.Fatalf("read fallback: %v", err)
	}
	if string(data) != first {
		t.Fatalf("file holds %q, want %q", data, first)
	}
	fi, err := fsys.Stat("/data/rpc.secret")
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != fileMode {
		t.Fatalf("mode = %v", fi.Mode().Perm())
	}
	second, _ := s.Token()
	if second != first {
		t.Fatal("fallback token changed between calls")
	}
}

func TestToken_PrefersExistingFile(t *testing.T) {
	kr := fakeKeyring(t, false)
	fsys := afero.NewMemMapFs()
	existing := strings.Repeat("ab", tokenBytes)
	if err := afero.WriteFile(fsys, "/data/rpc.secret", []byte(existing+"\n"), fileMode); err != nil {
		t.Fatal(err)
	}
	tok, err := NewStore(fsys, "/data/rpc.secret").Token()
	if err != nil {
		t.Fatal(err)
	}
	if tok != existing {
		t.Fatalf("Token = %q, want file token", tok)
	}
	if len(kr) != 0 {
		t.Fatal("keyring written although file token exists")
	}
}

func TestToken_Malformed(t *testing.T) {
	kr := fakeKeyring(t, false)
	kr["muezzin/rpc-token"] = "not-hex"
	if _, err := NewStore(afero.NewMemMapFs(), "/x").Token(); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestToken_RandFailure(t *testing.T) {
	fakeKeyring(t, false)
	orig := randRead
	t.Cleanup(func() { randRead = orig })
	randRead = func([]byte) (int, error) { return 0, errors.New("entropy") }

	if _, err := NewStore(afero.NewMemMapFs(), "/x").Token(); err == nil {
		t.Fatal("expected error")
	}
}

func TestReset(t *testing.T) {
	kr := fakeKeyring(t, false)
	fsys := afero.NewMemMapFs()
	s := NewStore(fsys, "/data/rpc.secret")
	if _, err := s.Token(); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if len(kr) != 0 {
		t.Fatal("keyring entry survived Reset")
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("second Reset: %v", err)
	}
}
