package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	registry := DefaultRegistry()

	if registry.Count() != 4 {
		t.Errorf("Expected 4 built-in providers, got %d", registry.Count())
	}
	if !registry.Known(8) {
		t.Error("Netflix (8) should be registered")
	}
	if registry.Name(337) != "Disney" {
		t.Errorf("Expected 'Disney' for id 337, got '%s'", registry.Name(337))
	}
	if registry.Known(999) {
		t.Error("Unknown id should not be registered")
	}

	all := registry.All()
	if len(all) != 4 || all[0].ID != 8 || all[3].ID != 350 {
		t.Errorf("Unexpected provider order: %+v", all)
	}
}

func TestLoadRegistryFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yml")
	content := `
providers:
  - id: 8
    name: Netflix
  - id: 531
    name: Paramount
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	registry, err := LoadRegistry(path)
	if err != nil {
		t.Fatal(err)
	}

	if registry.Count() != 2 {
		t.Errorf("Expected 2 providers, got %d", registry.Count())
	}
	if registry.Name(531) != "Paramount" {
		t.Errorf("Expected 'Paramount', got '%s'", registry.Name(531))
	}
}

func TestLoadRegistryMissingFileFallsBack(t *testing.T) {
	registry, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if registry.Count() != 4 {
		t.Errorf("Expected built-in defaults, got %d providers", registry.Count())
	}
}

func TestLoadRegistryInvalidEntries(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"empty list", "providers: []"},
		{"missing name", "providers:\n  - id: 8"},
		{"invalid id", "providers:\n  - id: 0\n    name: Nothing"},
		{"duplicate id", "providers:\n  - id: 8\n    name: Netflix\n  - id: 8\n    name: Again"},
		{"bad yaml", "providers: ["},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "providers.yml")
			if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadRegistry(path); err == nil {
				t.Errorf("Expected error for %s", tc.name)
			}
		})
	}
}
