package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// LoadFixture reads a fixture file relative to the test package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads a JSON fixture and unmarshals it into dest.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// FixturePath joins filename onto the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// SeedSnapshot stores the fixture file under name in store.
func SeedSnapshot(t *testing.T, store *SnapshotStore, name, fixture string) {
	t.Helper()

	store.Put(name, LoadFixture(t, FixturePath(fixture)))
}
