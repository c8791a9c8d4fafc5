// Package resolver picks the first usable request out of an ordered list of
// fallback candidates by asking a capability probe about each in turn.
package resolver

import (
	"context"

	"github.com/morezero/intents/pkg/intent"
)

// Probe answers whether some installed handler can satisfy a request.
// Implementations may block; the resolver forwards the caller's context
// untouched.
type Probe interface {
	Available(ctx context.Context, req intent.Request) (bool, error)
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc func(ctx context.Context, req intent.Request) (bool, error)

// Available calls f(ctx, req).
func (f ProbeFunc) Available(ctx context.Context, req intent.Request) (bool, error) {
	return f(ctx, req)
}

// AvailableFor asks probe about a bare (verb, target, contentType) triple.
func AvailableFor(ctx context.Context, probe Probe, verb intent.Verb, target, contentType string) (bool, error) {
	return probe.Available(ctx, intent.Request{Verb: verb, Target: target, ContentType: contentType})
}
