package fuzzy

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

type stubHasher struct{}

func (stubHasher) Name() string { return "Stub" }
func (stubHasher) HashFile(string) (string, error) { return "stub", nil }

func TestRegisterAndLookup(t *testing.T) {
	Register(stubHasher{})
	Register(nil)
	h, ok := Lookup("STUB")
	if !ok || h.Name() != "Stub" {
		t.Fatalf("lookup failed: %v %v", h, ok)
	}
	names := Available()
	found := false
	for _, n := range names {
		if n == "stub" {
			found = true
		}
	}
	if !found {
		t.Fatalf("stub missing from %v", names)
	}
}

func TestTLSHRegistered(t *testing.T) {
	if _, ok := Lookup("tlsh"); !ok {
		t.Fatal("tlsh should register itself")
	}
}

func TestTLSHHashFile(t *testing.T) {
	data := make([]byte, 4096)
	rand.New(rand.NewSource(1)).Read(data)
	path := filepath.Join(t.TempDir(), "blob.bin")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	hash, err := TLSHHasher{}.HashFile(path)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty tlsh digest")
	}
	if _, err := (TLSHHasher{}).HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
