package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/intents/pkg/intent"
)

const logPrefix = "resolver:resolver"

// State is the outcome of a resolution.
type State string

// Resolution states. A resolution starts Pending and ends either Satisfied or
// Exhausted.
const (
	StatePending   State = "pending"
	StateSatisfied State = "satisfied"
	StateExhausted State = "exhausted"
)

// Candidate lazily builds one fallback request. It is only invoked when the
// resolver reaches it.
type Candidate func() (intent.Request, error)

// Result is the outcome of Resolve / ResolveLazy.
type Result struct {
	State State `json:"state"`
	// Selected is set only when State is StateSatisfied.
	Selected *intent.Request `json:"request,omitempty"`
	// Index is the position of the selected candidate, or -1.
	Index int `json:"index"`
	// Probed is the number of candidates the probe was asked about.
	Probed int `json:"probed"`
}

// Satisfied reports whether a candidate was selected.
func (r Result) Satisfied() bool {
	return r.State == StateSatisfied && r.Selected != nil
}

// Request returns the selected request or an UNSATISFIABLE error when every
// candidate was rejected.
func (r Result) Request() (intent.Request, error) {
	if !r.Satisfied() {
		return intent.Request{}, &intent.Error{
			Code:    intent.CodeUnsatisfiable,
			Message: "no installed handler can satisfy any candidate",
			Details: map[string]interface{}{"probed": r.Probed},
		}
	}
	return r.Selected.Clone(), nil
}

// Resolve probes candidates in order and returns the first available one.
// Later candidates are never probed once one is accepted. A probe error stops
// the scan and is returned unmodified.
func Resolve(ctx context.Context, probe Probe, candidates ...intent.Request) (Result, error) {
	lazy := make([]Candidate, len(candidates))
	for i := range candidates {
		req := candidates[i]
		lazy[i] = func() (intent.Request, error) { return req, nil }
	}
	return ResolveLazy(ctx, probe, lazy...)
}

// ResolveLazy is Resolve for candidates built on demand. A build error stops
// the scan and is returned unmodified.
func ResolveLazy(ctx context.Context, probe Probe, candidates ...Candidate) (Result, error) {
	result := Result{State: StatePending, Index: -1}

	for i, build := range candidates {
		req, err := build()
		if err != nil {
			return result, err
		}

		ok, err := probe.Available(ctx, req)
		result.Probed++
		if err != nil {
			slog.Debug(fmt.Sprintf("%s - probe failed for candidate %d (%s %s): %v", logPrefix, i, req.Verb, req.Target, err))
			return result, err
		}
		if ok {
			slog.Debug(fmt.Sprintf("%s - candidate %d satisfied (%s %s)", logPrefix, i, req.Verb, req.Target))
			result.State = StateSatisfied
			result.Selected = &req
			result.Index = i
			return result, nil
		}
		slog.Debug(fmt.Sprintf("%s - candidate %d unavailable (%s %s)", logPrefix, i, req.Verb, req.Target))
	}

	result.State = StateExhausted
	return result, nil
}

// First resolves and converts exhaustion into an UNSATISFIABLE error.
func First(ctx context.Context, probe Probe, candidates ...intent.Request) (intent.Request, error) {
	result, err := Resolve(ctx, probe, candidates...)
	if err != nil {
		return intent.Request{}, err
	}
	return result.Request()
}
