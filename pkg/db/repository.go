package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/intents/pkg/catalog"
	"github.com/morezero/intents/pkg/intent"
)

const repoLogPrefix = "db:repository"

const handlerColumns = `id, package, label, verbs, schemes, mime_types, revision, created, modified`

// Repository is a Postgres-backed handler store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// =========================================================================
// HANDLER OPERATIONS
// =========================================================================

// HandlersFor returns the handlers declaring verb, ordered by package.
func (r *Repository) HandlersFor(ctx context.Context, verb intent.Verb) ([]catalog.Handler, error) {
	slog.Debug(fmt.Sprintf("%s - HandlersFor verb=%s", repoLogPrefix, verb))

	rows, err := r.pool.Query(ctx,
		`SELECT `+handlerColumns+`
		 FROM handlers
		 WHERE $1 = ANY(verbs)
		 ORDER BY package`, string(verb))
	if err != nil {
		return nil, fmt.Errorf("%s - HandlersFor query failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	return scanHandlers(rows)
}

// ListHandlers returns every handler, ordered by package.
func (r *Repository) ListHandlers(ctx context.Context) ([]catalog.Handler, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+handlerColumns+` FROM handlers ORDER BY package`)
	if err != nil {
		return nil, fmt.Errorf("%s - ListHandlers query failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	return scanHandlers(rows)
}

// GetHandler finds a handler row by package. It returns nil when none is installed.
func (r *Repository) GetHandler(ctx context.Context, pkg string) (*HandlerRow, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+handlerColumns+` FROM handlers WHERE package = $1 LIMIT 1`, pkg)
	return scanHandler(row)
}

// UpsertHandler installs or replaces a handler. Replacing bumps its revision.
func (r *Repository) UpsertHandler(ctx context.Context, h catalog.Handler) error {
	if err := h.Validate(); err != nil {
		return err
	}
	_, err := upsertHandler(ctx, r.pool, h.Normalized())
	return err
}

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func upsertHandler(ctx context.Context, q rowQuerier, h catalog.Handler) (*HandlerRow, error) {
	slog.Info(fmt.Sprintf("%s - UpsertHandler package=%s", repoLogPrefix, h.Package))

	var label *string
	if h.Label != "" {
		label = &h.Label
	}

	row := q.QueryRow(ctx,
		`INSERT INTO handlers (package, label, verbs, schemes, mime_types)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (package) DO UPDATE SET
		   label = EXCLUDED.label,
		   verbs = EXCLUDED.verbs,
		   schemes = EXCLUDED.schemes,
		   mime_types = EXCLUDED.mime_types,
		   revision = handlers.revision + 1,
		   modified = NOW()
		 RETURNING `+handlerColumns,
		h.Package, label, verbStrings(h.Verbs), nonNil(h.Schemes), nonNil(h.MimeTypes))

	return scanHandler(row)
}

// DeleteHandler removes a handler. It reports whether one was installed.
func (r *Repository) DeleteHandler(ctx context.Context, pkg string) (bool, error) {
	slog.Info(fmt.Sprintf("%s - DeleteHandler package=%s", repoLogPrefix, pkg))

	tag, err := r.pool.Exec(ctx, `DELETE FROM handlers WHERE package = $1`, pkg)
	if err != nil {
		return false, fmt.Errorf("%s - DeleteHandler failed: %w", repoLogPrefix, err)
	}
	return tag.RowsAffected() > 0, nil
}

// =========================================================================
// PERMISSION OPERATIONS
// =========================================================================

// Granted reports whether permission has been granted.
func (r *Repository) Granted(ctx context.Context, permission string) (bool, error) {
	var granted bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM granted_permissions WHERE permission = $1)`, permission).Scan(&granted)
	if err != nil {
		return false, fmt.Errorf("%s - Granted query failed: %w", repoLogPrefix, err)
	}
	return granted, nil
}

// GrantPermission grants permission. Granting twice is a no-op.
func (r *Repository) GrantPermission(ctx context.Context, permission string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO granted_permissions (permission) VALUES ($1) ON CONFLICT (permission) DO NOTHING`, permission)
	if err != nil {
		return fmt.Errorf("%s - GrantPermission failed: %w", repoLogPrefix, err)
	}
	return nil
}

// RevokePermission revokes permission.
func (r *Repository) RevokePermission(ctx context.Context, permission string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM granted_permissions WHERE permission = $1`, permission); err != nil {
		return fmt.Errorf("%s - RevokePermission failed: %w", repoLogPrefix, err)
	}
	return nil
}

// =========================================================================
// SCAN HELPERS
// =========================================================================

func scanHandler(row pgx.Row) (*HandlerRow, error) {
	var h HandlerRow
	err := row.Scan(&h.ID, &h.Package, &h.Label, &h.Verbs, &h.Schemes, &h.MimeTypes, &h.Revision, &h.Created, &h.Modified)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - scan handler failed: %w", repoLogPrefix, err)
	}
	return &h, nil
}

func scanHandlers(rows pgx.Rows) ([]catalog.Handler, error) {
	var out []catalog.Handler
	for rows.Next() {
		var h HandlerRow
		if err := rows.Scan(&h.ID, &h.Package, &h.Label, &h.Verbs, &h.Schemes, &h.MimeTypes, &h.Revision, &h.Created, &h.Modified); err != nil {
			return nil, fmt.Errorf("%s - scan handlers failed: %w", repoLogPrefix, err)
		}
		out = append(out, h.Handler())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - iterate handlers failed: %w", repoLogPrefix, err)
	}
	return out, nil
}
