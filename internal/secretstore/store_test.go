package secretstore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/printforge/accountlink/internal/token"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "secrets.json"))
}

func TestFileStoreSaveLoad(t *testing.T) {
	s := newTestFileStore(t)
	if !s.Ok() {
		t.Fatal("file store should be usable")
	}
	if err := s.Save("tokens", "session-key", "a|r|100"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	user, secret, err := s.Load("tokens")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if user != "session-key" || secret != "a|r|100" {
		t.Fatalf("Load = (%q, %q)", user, secret)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	s := newTestFileStore(t)
	if _, _, err := s.Load("tokens"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadTokenRecordPipeForm(t *testing.T) {
	s := NewMemStore()
	if err := s.Save(TokensKey, "ssk", "acc|ref|1700000000"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	rec := LoadTokenRecord(s)
	want := token.Record{AccessToken: "acc", RefreshToken: "ref", SharedSessionKey: "ssk", ExpiresAt: 1700000000}
	if rec != want {
		t.Fatalf("LoadTokenRecord = %+v, want %+v", rec, want)
	}
}

func TestLoadTokenRecordLegacyForm(t *testing.T) {
	s := NewMemStore()
	for key, secret := range map[string]string{
		legacyAccessKey:  "acc",
		legacyRefreshKey: "ref",
		legacyTimeoutKey: "1700000000",
	} {
		if err := s.Save(key, "ssk", secret); err != nil {
			t.Fatalf("Save(%s): %v", key, err)
		}
	}
	rec := LoadTokenRecord(s)
	if rec.AccessToken != "acc" || rec.RefreshToken != "ref" || rec.ExpiresAt != 1700000000 {
		t.Fatalf("legacy load = %+v", rec)
	}
	if rec.SharedSessionKey != "ssk" {
		t.Fatalf("shared session key = %q", rec.SharedSessionKey)
	}
}

func TestLoadTokenRecordUnusableStore(t *testing.T) {
	s := NewMemStore()
	s.Unusable = true
	if rec := LoadTokenRecord(s); !rec.Empty() {
		t.Fatalf("expected unauthenticated record, got %+v", rec)
	}
}

func TestSaveTokenRecordForget(t *testing.T) {
	s := NewMemStore()
	rec := token.Record{AccessToken: "a", RefreshToken: "r", SharedSessionKey: "k", ExpiresAt: 9}
	SaveTokenRecord(s, rec, true)
	if _, secret, _ := s.Load(TokensKey); secret != rec.Serialize() {
		t.Fatalf("remembered secret = %q", secret)
	}

	SaveTokenRecord(s, rec, false)
	_, secret, err := s.Load(TokensKey)
	if err != nil || secret != "" {
		t.Fatalf("forgotten secret = %q, err %v", secret, err)
	}
	if loaded := LoadTokenRecord(s); loaded.HasRefresh() {
		t.Fatal("forgotten tokens must not yield refresh capability")
	}
}
