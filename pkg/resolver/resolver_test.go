package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/morezero/intents/pkg/intent"
)

// scriptedProbe answers by target and records every request it sees.
type scriptedProbe struct {
	answers map[string]bool
	errs    map[string]error
	seen    []string
}

func (p *scriptedProbe) Available(_ context.Context, req intent.Request) (bool, error) {
	p.seen = append(p.seen, req.Target)
	if err := p.errs[req.Target]; err != nil {
		return false, err
	}
	return p.answers[req.Target], nil
}

func candidates(targets ...string) []intent.Request {
	out := make([]intent.Request, len(targets))
	for i, t := range targets {
		out[i] = intent.Request{Verb: intent.VerbView, Target: t}
	}
	return out
}

func TestResolve_FirstAvailableWins(t *testing.T) {
	probe := &scriptedProbe{answers: map[string]bool{"a:": false, "b:": true, "c:": true}}

	result, err := Resolve(context.Background(), probe, candidates("a:", "b:", "c:")...)
	if err != nil {
		t.Fatalf("resolver:resolver_test - unexpected error: %v", err)
	}
	if result.State != StateSatisfied || result.Index != 1 {
		t.Fatalf("resolver:resolver_test - result = %+v, want satisfied at index 1", result)
	}
	req, err := result.Request()
	if err != nil || req.Target != "b:" {
		t.Errorf("resolver:resolver_test - Request() = %+v, %v", req, err)
	}
	if len(probe.seen) != 2 || probe.seen[0] != "a:" || probe.seen[1] != "b:" {
		t.Errorf("resolver:resolver_test - probe saw %v, want [a: b:]", probe.seen)
	}
	if result.Probed != 2 {
		t.Errorf("resolver:resolver_test - Probed = %d, want 2", result.Probed)
	}
}

func TestResolve_Exhausted(t *testing.T) {
	probe := &scriptedProbe{}

	result, err := Resolve(context.Background(), probe, candidates("a:", "b:")...)
	if err != nil {
		t.Fatalf("resolver:resolver_test - unexpected error: %v", err)
	}
	if result.State != StateExhausted || result.Selected != nil || result.Index != -1 {
		t.Errorf("resolver:resolver_test - result = %+v, want exhausted", result)
	}
	if _, err := result.Request(); !intent.IsCode(err, intent.CodeUnsatisfiable) {
		t.Errorf("resolver:resolver_test - Request() error = %v, want UNSATISFIABLE", err)
	}
	if len(probe.seen) != 2 {
		t.Errorf("resolver:resolver_test - probe saw %v, want both candidates", probe.seen)
	}
}

func TestResolve_NoCandidates(t *testing.T) {
	result, err := Resolve(context.Background(), &scriptedProbe{})
	if err != nil {
		t.Fatalf("resolver:resolver_test - unexpected error: %v", err)
	}
	if result.State != StateExhausted {
		t.Errorf("resolver:resolver_test - State = %s, want exhausted", result.State)
	}
}

func TestResolve_ProbeErrorPropagates(t *testing.T) {
	boom := errors.New("probe unreachable")
	probe := &scriptedProbe{
		answers: map[string]bool{"c:": true},
		errs:    map[string]error{"b:": boom},
	}

	result, err := Resolve(context.Background(), probe, candidates("a:", "b:", "c:")...)
	if !errors.Is(err, boom) {
		t.Fatalf("resolver:resolver_test - error = %v, want %v", err, boom)
	}
	if result.Satisfied() {
		t.Error("resolver:resolver_test - result must not be satisfied on probe failure")
	}
	if len(probe.seen) != 2 {
		t.Errorf("resolver:resolver_test - probe saw %v, want scan to stop at b:", probe.seen)
	}
}

func TestResolve_ForwardsContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "caller")

	var got interface{}
	probe := ProbeFunc(func(ctx context.Context, _ intent.Request) (bool, error) {
		got = ctx.Value(key{})
		return true, nil
	})

	if _, err := Resolve(ctx, probe, candidates("a:")...); err != nil {
		t.Fatalf("resolver:resolver_test - unexpected error: %v", err)
	}
	if got != "caller" {
		t.Errorf("resolver:resolver_test - probe context value = %v, want caller", got)
	}
}

func TestResolveLazy_BuildsOnlyReachedCandidates(t *testing.T) {
	built := 0
	mk := func(target string) Candidate {
		return func() (intent.Request, error) {
			built++
			return intent.Request{Verb: intent.VerbView, Target: target}, nil
		}
	}
	probe := &scriptedProbe{answers: map[string]bool{"a:": true}}

	result, err := ResolveLazy(context.Background(), probe, mk("a:"), mk("b:"), mk("c:"))
	if err != nil {
		t.Fatalf("resolver:resolver_test - unexpected error: %v", err)
	}
	if result.Index != 0 || built != 1 {
		t.Errorf("resolver:resolver_test - index=%d built=%d, want 0 and 1", result.Index, built)
	}
}

func TestResolveLazy_BuildError(t *testing.T) {
	probe := &scriptedProbe{}
	bad := func() (intent.Request, error) { return intent.Call("") }

	_, err := ResolveLazy(context.Background(), probe, bad)
	if !intent.IsCode(err, intent.CodeInvalidArgument) {
		t.Errorf("resolver:resolver_test - error = %v, want INVALID_ARGUMENT", err)
	}
	if len(probe.seen) != 0 {
		t.Errorf("resolver:resolver_test - probe should not be asked, saw %v", probe.seen)
	}
}

func TestResolve_StatelessAcrossCalls(t *testing.T) {
	answers := map[string]bool{"a:": true}
	probe := &scriptedProbe{answers: answers}

	first, _ := Resolve(context.Background(), probe, candidates("a:", "b:")...)
	answers["a:"] = false
	answers["b:"] = true
	second, _ := Resolve(context.Background(), probe, candidates("a:", "b:")...)

	if first.Index != 0 || second.Index != 1 {
		t.Errorf("resolver:resolver_test - indexes = %d, %d; want 0, 1", first.Index, second.Index)
	}
}

func TestFirst(t *testing.T) {
	probe := &scriptedProbe{answers: map[string]bool{"b:": true}}
	req, err := First(context.Background(), probe, candidates("a:", "b:")...)
	if err != nil || req.Target != "b:" {
		t.Errorf("resolver:resolver_test - First = %+v, %v", req, err)
	}

	if _, err := First(context.Background(), &scriptedProbe{}, candidates("a:")...); !intent.IsCode(err, intent.CodeUnsatisfiable) {
		t.Errorf("resolver:resolver_test - expected UNSATISFIABLE, got %v", err)
	}
}

func TestAvailableFor(t *testing.T) {
	var got intent.Request
	probe := ProbeFunc(func(_ context.Context, req intent.Request) (bool, error) {
		got = req
		return true, nil
	})

	ok, err := AvailableFor(context.Background(), probe, intent.VerbView, "vnd.youtube:", "")
	if !ok || err != nil {
		t.Fatalf("resolver:resolver_test - AvailableFor = %v, %v", ok, err)
	}
	if got.Verb != intent.VerbView || got.Target != "vnd.youtube:" {
		t.Errorf("resolver:resolver_test - probe got %+v", got)
	}
}
