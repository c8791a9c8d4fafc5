package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/intents/pkg/catalog"
)

const seedLogPrefix = "db:seed"

// SeedFromCatalog loads a catalog (see catalog.LoadCatalog for the lookup
// order) and installs its handlers and permissions in one transaction.
// Idempotent: existing handlers are replaced, existing grants kept.
func SeedFromCatalog(ctx context.Context, pool *pgxpool.Pool, catalogFilePath string) (int, error) {
	f, err := catalog.LoadCatalog(catalogFilePath)
	if err != nil {
		return 0, fmt.Errorf("%s - load catalog: %w", seedLogPrefix, err)
	}
	return SeedCatalog(ctx, pool, f)
}

// SeedCatalog installs the handlers and permissions of f.
func SeedCatalog(ctx context.Context, pool *pgxpool.Pool, f *catalog.File) (int, error) {
	if f == nil || (len(f.Handlers) == 0 && len(f.Permissions) == 0) {
		slog.Info(fmt.Sprintf("%s - nothing to seed", seedLogPrefix))
		return 0, nil
	}
	slog.Info(fmt.Sprintf("%s - seeding catalog %q (%d handlers)", seedLogPrefix, f.Name, len(f.Handlers)))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s - begin tx: %w", seedLogPrefix, err)
	}
	defer tx.Rollback(ctx)

	for _, h := range f.Handlers {
		if err := h.Validate(); err != nil {
			return 0, fmt.Errorf("%s - handler %q: %w", seedLogPrefix, h.Package, err)
		}
		if _, err := upsertHandler(ctx, tx, h.Normalized()); err != nil {
			return 0, fmt.Errorf("%s - upsert handler %s: %w", seedLogPrefix, h.Package, err)
		}
	}
	for _, p := range f.Permissions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO granted_permissions (permission) VALUES ($1) ON CONFLICT (permission) DO NOTHING`, p); err != nil {
			return 0, fmt.Errorf("%s - grant %s: %w", seedLogPrefix, p, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s - commit: %w", seedLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - seeded %d handlers, %d permissions", seedLogPrefix, len(f.Handlers), len(f.Permissions)))
	return len(f.Handlers), nil
}
