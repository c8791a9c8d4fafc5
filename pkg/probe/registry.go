package probe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/intents/pkg/catalog"
	"github.com/morezero/intents/pkg/intent"
)

const logPrefix = "probe:registry"

// HandlerSource lists installed handlers by verb.
type HandlerSource interface {
	HandlersFor(ctx context.Context, verb intent.Verb) ([]catalog.Handler, error)
}

// PermissionSource reports granted permissions.
type PermissionSource interface {
	Granted(ctx context.Context, permission string) (bool, error)
}

// Registry is a capability probe over a handler catalog.
type Registry struct {
	handlers    HandlerSource
	permissions PermissionSource
}

// NewRegistryParams holds parameters for NewRegistry.
type NewRegistryParams struct {
	Handlers HandlerSource
	// Permissions may be nil, in which case requests carrying a permission
	// are never available.
	Permissions PermissionSource
}

// NewRegistry creates a probe Registry.
func NewRegistry(params NewRegistryParams) *Registry {
	return &Registry{handlers: params.Handlers, permissions: params.Permissions}
}

// Available reports whether at least one handler satisfies req.
func (r *Registry) Available(ctx context.Context, req intent.Request) (bool, error) {
	matched, err := r.Match(ctx, req)
	if err != nil {
		return false, err
	}
	return len(matched) > 0, nil
}

// Match returns the handlers able to satisfy req. Chooser requests are matched
// by the request they wrap. A request carrying a permission matches nothing
// until that permission is granted.
func (r *Registry) Match(ctx context.Context, req intent.Request) ([]catalog.Handler, error) {
	req = req.Unwrapped()

	if req.Permission != "" {
		granted, err := r.granted(ctx, req.Permission)
		if err != nil {
			return nil, err
		}
		if !granted {
			slog.Debug(fmt.Sprintf("%s - permission %s not granted for %s %s", logPrefix, req.Permission, req.Verb, req.Target))
			return nil, nil
		}
	}

	candidates, err := r.handlers.HandlersFor(ctx, req.Verb)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to list %s handlers: %w", logPrefix, req.Verb, err)
	}

	var matched []catalog.Handler
	for _, h := range candidates {
		if Matches(h, req) {
			matched = append(matched, h)
		}
	}
	slog.Debug(fmt.Sprintf("%s - %s %s type=%q matched %d of %d handlers", logPrefix, req.Verb, req.Target, req.ContentType, len(matched), len(candidates)))
	return matched, nil
}

func (r *Registry) granted(ctx context.Context, permission string) (bool, error) {
	if r.permissions == nil {
		return false, nil
	}
	ok, err := r.permissions.Granted(ctx, permission)
	if err != nil {
		return false, fmt.Errorf("%s - failed to check permission %s: %w", logPrefix, permission, err)
	}
	return ok, nil
}
