package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearHandlers removes every installed handler and granted permission. The
// schema is preserved.
func ClearHandlers(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info(fmt.Sprintf("%s - Clearing handler tables", clearLogPrefix))

	if _, err := pool.Exec(ctx, `TRUNCATE TABLE handlers, granted_permissions`); err != nil {
		return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Handler tables cleared", clearLogPrefix))
	return nil
}
