package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const migrationsLogPrefix = "db:migrations"

// Migration is one versioned SQL file. Files are named NNN_description.sql.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// LoadMigrationFiles reads the .sql files in dir ordered by version.
// Directories, other extensions and whitespace-only files are skipped. A
// missing or duplicate version is an error.
func LoadMigrationFiles(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s - read migration dir %s: %w", migrationsLogPrefix, dir, err)
	}

	byVersion := make(map[int]string)
	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".sql") {
			continue
		}
		version, err := migrationVersion(e.Name())
		if err != nil {
			return nil, err
		}
		if prev, dup := byVersion[version]; dup {
			return nil, fmt.Errorf("%s - %s and %s share version %d", migrationsLogPrefix, prev, e.Name(), version)
		}
		byVersion[version] = e.Name()

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s - read %s: %w", migrationsLogPrefix, path, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			slog.Warn(fmt.Sprintf("%s - skipping empty migration %s", migrationsLogPrefix, e.Name()))
			continue
		}
		out = append(out, Migration{Version: version, Name: e.Name(), SQL: string(data)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	slog.Info(fmt.Sprintf("%s - Loaded %d migration files from %s", migrationsLogPrefix, len(out), dir))
	return out, nil
}

func migrationVersion(name string) (int, error) {
	prefix, _, _ := strings.Cut(strings.TrimSuffix(name, filepath.Ext(name)), "_")
	version, err := strconv.Atoi(prefix)
	if err != nil || version <= 0 {
		return 0, fmt.Errorf("%s - %s: file name must start with a positive version number", migrationsLogPrefix, name)
	}
	return version, nil
}
