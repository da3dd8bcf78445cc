package seal

import (
	"path/filepath"
	"testing"

	"gateway/internal/ferrors"
)

func TestSealUnsealRoundTrip(t *testing.T) {
	dir := t.TempDir()
	kr, err := Load(filepath.Join(dir, "seal.key"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	sealed, err := kr.Seal("hunter2")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	plain, err := kr.Unseal(sealed)
	if err != nil {
		t.Fatalf("Unseal() error = %v", err)
	}
	if plain != "hunter2" {
		t.Errorf("Unseal() = %q, want %q", plain, "hunter2")
	}
}

func TestLoadPersistsKeyAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "seal.key")
	kr1, err := Load(keyPath)
	if err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	sealed, err := kr1.Seal("secret")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	kr2, err := Load(keyPath)
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	plain, err := kr2.Unseal(sealed)
	if err != nil {
		t.Fatalf("Unseal() with reloaded key error = %v", err)
	}
	if plain != "secret" {
		t.Errorf("Unseal() = %q, want %q", plain, "secret")
	}
}

func TestUnsealWithWrongKeyFails(t *testing.T) {
	dir := t.TempDir()
	kr1, _ := Load(filepath.Join(dir, "a.key"))
	kr2, _ := Load(filepath.Join(dir, "b.key"))

	sealed, err := kr1.Seal("secret")
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if _, err := kr2.Unseal(sealed); !ferrors.Is(err, ferrors.ProtocolError) {
		t.Errorf("Unseal() with wrong key error = %v, want ProtocolError", err)
	}
}

func TestUnsealGarbageFails(t *testing.T) {
	dir := t.TempDir()
	kr, _ := Load(filepath.Join(dir, "seal.key"))
	if _, err := kr.Unseal("not-valid-base64!!"); !ferrors.Is(err, ferrors.InvalidFormat) {
		t.Errorf("Unseal(garbage) error = %v, want InvalidFormat", err)
	}
}
