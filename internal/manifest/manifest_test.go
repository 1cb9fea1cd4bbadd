package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "app.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadAppliesScreenDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeTestManifest(t, dir, "entry_class: com/example/Game\n")

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.ScreenWidth != DefaultScreenWidth || m.ScreenHeight != DefaultScreenHeight {
		t.Fatalf("got %dx%d, want %dx%d", m.ScreenWidth, m.ScreenHeight, DefaultScreenWidth, DefaultScreenHeight)
	}
}

func TestLoadRejectsMissingEntryClass(t *testing.T) {
	dir := t.TempDir()
	path := writeTestManifest(t, dir, "screen_width: 320\n")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing entry_class")
	}
}

func TestLoadResourcesReadsRelativeFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "icon.png"), []byte("fake-png"), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	path := writeTestManifest(t, dir, "entry_class: com/example/Game\nresources:\n  - path: /res/icon.png\n    file: icon.png\n")

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	table, err := m.LoadResources()
	if err != nil {
		t.Fatalf("LoadResources: %v", err)
	}
	id, ok := table.ID("/res/icon.png")
	if !ok {
		t.Fatalf("expected /res/icon.png to be registered")
	}
	data, err := table.Data(id)
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if string(data) != "fake-png" {
		t.Fatalf("Data = %q, want %q", data, "fake-png")
	}
}

func TestLoadNativeImageNilWhenUndeclared(t *testing.T) {
	dir := t.TempDir()
	path := writeTestManifest(t, dir, "entry_class: com/example/Game\n")

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	data, err := m.LoadNativeImage()
	if err != nil {
		t.Fatalf("LoadNativeImage: %v", err)
	}
	if data != nil {
		t.Fatalf("expected nil image, got %d bytes", len(data))
	}
}
