// Package testsupport provides shared test fixtures: embedded
// signature recordings and helpers to materialize them on disk.
package testsupport

import (
	"embed"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/signature"
)

//go:embed signatures/*.json
var signaturesFS embed.FS

// LoadSignature parses an embedded signature recording by file name.
func LoadSignature(t testing.TB, name string) *signature.File {
	t.Helper()

	data, err := signaturesFS.ReadFile("signatures/" + name)
	if err != nil {
		t.Fatalf("load signature %s: %v", name, err)
	}
	f, err := signature.Parse(data)
	if err != nil {
		t.Fatalf("parse signature %s: %v", name, err)
	}
	return f
}

// LoadSignatureSet loads several embedded recordings, for reference
// builds spanning multiple takes.
func LoadSignatureSet(t testing.TB, names ...string) []*signature.File {
	t.Helper()

	files := make([]*signature.File, len(names))
	for i, name := range names {
		files[i] = LoadSignature(t, name)
	}
	return files
}

// WriteSignature copies an embedded recording into dir and returns the
// written path, for commands that read recordings from disk.
func WriteSignature(t testing.TB, dir, name string) string {
	t.Helper()

	data, err := signaturesFS.ReadFile("signatures/" + name)
	if err != nil {
		t.Fatalf("load signature %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write signature %s: %v", name, err)
	}
	return path
}
