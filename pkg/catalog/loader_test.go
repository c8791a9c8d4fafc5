package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/morezero/intents/pkg/intent"
)

const sampleYAML = `
name: test-device
platformVersion: "4.4.2"
handlers:
  - package: com.google.android.youtube
    label: YouTube
    verbs: [view]
    schemes: [VND.YOUTUBE, http, https]
  - package: com.example.gallery
    verbs: [PICK, GET_CONTENT]
    mimeTypes: ["image/*"]
permissions:
  - CALL_PHONE
`

const sampleJSON = `{
  "name": "json-device",
  "handlers": [
    {"package": "com.example.maps", "verbs": ["VIEW"], "schemes": ["geo", "google.navigation"]}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("catalog:loader_test - write %s: %v", p, err)
	}
	return p
}

func TestLoadFile_YAML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "handlers.yaml", sampleYAML)

	f, err := LoadFile(p)
	if err != nil {
		t.Fatalf("catalog:loader_test - unexpected error: %v", err)
	}
	if f.Name != "test-device" || f.PlatformVersion != "4.4.2" {
		t.Errorf("catalog:loader_test - header = %q %q", f.Name, f.PlatformVersion)
	}
	if len(f.Handlers) != 2 {
		t.Fatalf("catalog:loader_test - got %d handlers, want 2", len(f.Handlers))
	}
	yt := f.Handlers[0]
	if !yt.Accepts(intent.VerbView) {
		t.Errorf("catalog:loader_test - verbs not normalized: %v", yt.Verbs)
	}
	if yt.Schemes[0] != "vnd.youtube" {
		t.Errorf("catalog:loader_test - schemes not normalized: %v", yt.Schemes)
	}
	if len(f.Permissions) != 1 || f.Permissions[0] != intent.PermissionCallPhone {
		t.Errorf("catalog:loader_test - permissions = %v", f.Permissions)
	}
}

func TestLoadFile_JSON(t *testing.T) {
	p := writeFile(t, t.TempDir(), "handlers.json", sampleJSON)

	f, err := LoadFile(p)
	if err != nil {
		t.Fatalf("catalog:loader_test - unexpected error: %v", err)
	}
	if f.Name != "json-device" || len(f.Handlers) != 1 || f.Handlers[0].Package != "com.example.maps" {
		t.Errorf("catalog:loader_test - LoadFile = %+v", f)
	}
}

func TestParse_InvalidHandler(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing package", `{"handlers":[{"verbs":["VIEW"]}]}`},
		{"missing verbs", `{"handlers":[{"package":"a"}]}`},
		{"malformed", `{"handlers":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data), ".json"); err == nil {
				t.Error("catalog:loader_test - expected error")
			}
		})
	}
}

func TestLoadCatalog_PathOrder(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.yaml", "handlers: [")
	good := writeFile(t, dir, "good.json", sampleJSON)
	fromEnv := writeFile(t, dir, "env.yaml", sampleYAML)
	t.Setenv(EnvCatalogFile, fromEnv)

	f, err := LoadCatalog(filepath.Join(dir, "missing.yaml"), broken, good)
	if err != nil {
		t.Fatalf("catalog:loader_test - unexpected error: %v", err)
	}
	if f.Name != "json-device" {
		t.Errorf("catalog:loader_test - loaded %q, want explicit path before env", f.Name)
	}

	f, err = LoadCatalog()
	if err != nil {
		t.Fatalf("catalog:loader_test - unexpected error: %v", err)
	}
	if f.Name != "test-device" {
		t.Errorf("catalog:loader_test - loaded %q, want env catalog", f.Name)
	}
}

func TestLoadCatalog_FallsBackToDefault(t *testing.T) {
	t.Setenv(EnvCatalogFile, "")

	f, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("catalog:loader_test - unexpected error: %v", err)
	}
	if f.Name != DefaultCatalog().Name || len(f.Handlers) == 0 {
		t.Errorf("catalog:loader_test - expected stock catalog, got %+v", f)
	}
	for _, h := range f.Handlers {
		if err := h.Validate(); err != nil {
			t.Errorf("catalog:loader_test - stock handler invalid: %v", err)
		}
	}
}
