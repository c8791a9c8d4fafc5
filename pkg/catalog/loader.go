package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/morezero/intents/pkg/intent"
)

const logPrefix = "catalog:loader"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EnvCatalogFile names the environment variable consulted by LoadCatalog.
const EnvCatalogFile = "HANDLER_CATALOG_FILE"

// LoadCatalog loads a handler catalog. It tries paths in order: first any
// paths passed in, then HANDLER_CATALOG_FILE, then the default locations.
// Unreadable or malformed files are skipped. When nothing loads, the stock
// catalog is returned.
func LoadCatalog(paths ...string) (*File, error) {
	all := make([]string, 0, len(paths)+4)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv(EnvCatalogFile); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/handlers.yaml", "handlers.yaml", "handlers.json")

	for _, p := range all {
		f, err := LoadFile(p)
		if err != nil {
			if !os.IsNotExist(err) {
				slog.Warn(fmt.Sprintf("%s - Failed to load catalog file %s: %v", logPrefix, p, err))
			}
			continue
		}
		slog.Info(fmt.Sprintf("%s - Loaded catalog %q from %s (%d handlers)", logPrefix, f.Name, p, len(f.Handlers)))
		return f, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default handler catalog", logPrefix))
	return DefaultCatalog(), nil
}

// LoadFile reads and decodes a single catalog file. The format is chosen by
// extension: .yaml and .yml decode as YAML, anything else as JSON.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes catalog data. ext selects the format as in LoadFile.
func Parse(data []byte, ext string) (*File, error) {
	var f File
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%s - invalid YAML catalog: %w", logPrefix, err)
		}
	default:
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%s - invalid JSON catalog: %w", logPrefix, err)
		}
	}

	for i, h := range f.Handlers {
		if err := h.Validate(); err != nil {
			return nil, fmt.Errorf("%s - handler %d: %w", logPrefix, i, err)
		}
		f.Handlers[i] = h.Normalized()
	}
	return &f, nil
}

// DefaultCatalog returns the stock handlers every host ships with.
func DefaultCatalog() *File {
	return &File{
		Name: "stock",
		Handlers: []Handler{
			{
				Package: "com.android.dialer",
				Label:   "Phone",
				Verbs:   []intent.Verb{intent.VerbDial},
				Schemes: []string{"tel"},
			},
			{
				Package: "com.android.browser",
				Label:   "Browser",
				Verbs:   []intent.Verb{intent.VerbView},
				Schemes: []string{"http", "https"},
			},
			{
				Package:   "com.android.contacts",
				Label:     "Contacts",
				Verbs:     []intent.Verb{intent.VerbPick},
				Schemes:   []string{"content"},
				MimeTypes: []string{"vnd.android.cursor.dir/*"},
			},
			{
				Package: "com.android.mms",
				Label:   "Messaging",
				Verbs:   []intent.Verb{intent.VerbView, intent.VerbSendTo},
				Schemes: []string{"sms", "smsto"},
			},
		},
	}
}
