package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/intents/pkg/catalog"
	"github.com/morezero/intents/pkg/commsutil"
	"github.com/morezero/intents/pkg/events"
	"github.com/morezero/intents/pkg/intent"
	"github.com/morezero/intents/pkg/metrics"
	"github.com/morezero/intents/pkg/platform"
	"github.com/morezero/intents/pkg/probe"
	"github.com/morezero/intents/pkg/resolver"
)

const logPrefix = "dispatcher:dispatch"

// HandlerStore is the installed-handler store behind the dispatcher.
// Implemented by *catalog.Store and *db.Repository.
type HandlerStore interface {
	probe.HandlerSource
	probe.PermissionSource
	ListHandlers(ctx context.Context) ([]catalog.Handler, error)
	UpsertHandler(ctx context.Context, h catalog.Handler) error
	DeleteHandler(ctx context.Context, pkg string) (bool, error)
	Ping(ctx context.Context) error
}

// Dispatcher routes COMMS requests to builders, the resolver and the store.
type Dispatcher struct {
	store     HandlerStore
	registry  *probe.Registry
	probe     resolver.Probe
	publisher events.EventPublisher
	caps      platform.Capabilities
	catalog   string
}

// NewDispatcherParams holds parameters for NewDispatcher.
type NewDispatcherParams struct {
	Store HandlerStore
	// Probe replaces the probe built over Store. Optional.
	Probe     resolver.Probe
	Publisher events.EventPublisher
	Platform  platform.Capabilities
	// CatalogName is reported by health.
	CatalogName string
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(params NewDispatcherParams) *Dispatcher {
	d := &Dispatcher{
		store:     params.Store,
		publisher: params.Publisher,
		caps:      params.Platform,
		catalog:   params.CatalogName,
	}
	if d.publisher == nil {
		d.publisher = &events.NoOpPublisher{}
	}
	if params.Store != nil {
		d.registry = probe.NewRegistry(probe.NewRegistryParams{Handlers: params.Store, Permissions: params.Store})
	}
	p := params.Probe
	if p == nil && d.registry != nil {
		p = d.registry
	}
	if p != nil {
		d.probe = metrics.InstrumentProbe(p)
	}
	return d
}

// Dispatch routes a request to the appropriate method and returns a response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *Response {
	slog.Debug(fmt.Sprintf("%s - method=%s id=%s", logPrefix, req.Method, req.ID))
	start := time.Now()

	resp := d.route(ctx, req)

	outcome := "ok"
	if !resp.Ok && resp.Error != nil {
		outcome = resp.Error.Code
	}
	metrics.RecordDispatch(req.Method, outcome, time.Since(start))
	return resp
}

func (d *Dispatcher) route(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case MethodBuild:
		return d.handleBuild(req)
	case MethodResolve:
		return d.handleResolve(ctx, req)
	case MethodProbe:
		return d.handleProbe(ctx, req)
	case MethodHandlers:
		return d.handleHandlers(ctx, req)
	case MethodRegister:
		return d.handleRegister(ctx, req)
	case MethodUnregister:
		return d.handleUnregister(ctx, req)
	case MethodHealth:
		return &Response{ID: req.ID, Ok: true, Result: d.Health(ctx)}
	default:
		return &Response{
			ID: req.ID,
			Ok: false,
			Error: &ErrorDetail{
				Code:      intent.CodeMethodNotFound,
				Message:   fmt.Sprintf("Unknown method: %s", req.Method),
				Retryable: false,
			},
		}
	}
}

func (d *Dispatcher) handleBuild(req *Request) *Response {
	var input BuildParams
	if err := decodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, intent.CodeInvalidArgument, "Failed to parse build params", false)
	}

	candidates, err := Build(d.caps, input.Builder, input.Args)
	if err != nil {
		return errorToResponse(req.ID, err)
	}
	return &Response{ID: req.ID, Ok: true, Result: &BuildResult{Builder: input.Builder, Candidates: candidates}}
}

func (d *Dispatcher) handleResolve(ctx context.Context, req *Request) *Response {
	if d.probe == nil {
		return errorResponse(req.ID, intent.CodeInternal, "No capability probe configured", true)
	}

	var input ResolveParams
	if err := decodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, intent.CodeInvalidArgument, "Failed to parse resolve params", false)
	}

	candidates := input.Candidates
	if input.Builder != "" {
		built, err := Build(d.caps, input.Builder, input.Args)
		if err != nil {
			return errorToResponse(req.ID, err)
		}
		candidates = built
	}

	result, err := resolver.Resolve(ctx, d.probe, candidates...)
	if err != nil {
		return errorToResponse(req.ID, probeFailure(err))
	}
	metrics.RecordResolution(result.State)
	return &Response{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handleProbe(ctx context.Context, req *Request) *Response {
	if d.probe == nil {
		return errorResponse(req.ID, intent.CodeInternal, "No capability probe configured", true)
	}

	var input ProbeParams
	if err := decodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, intent.CodeInvalidArgument, "Failed to parse probe params", false)
	}

	ok, err := d.probe.Available(ctx, input.Request)
	if err != nil {
		return errorToResponse(req.ID, probeFailure(err))
	}
	result := &ProbeResult{Available: ok}
	if ok && d.registry != nil {
		if result.Handlers, err = d.registry.Match(ctx, input.Request); err != nil {
			return errorToResponse(req.ID, probeFailure(err))
		}
	}
	return &Response{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handleHandlers(ctx context.Context, req *Request) *Response {
	if d.store == nil {
		return errorResponse(req.ID, intent.CodeInternal, "No handler store configured", true)
	}
	handlers, err := d.store.ListHandlers(ctx)
	if err != nil {
		return errorToResponse(req.ID, err)
	}
	if handlers == nil {
		handlers = []catalog.Handler{}
	}
	return &Response{ID: req.ID, Ok: true, Result: handlers}
}

func (d *Dispatcher) handleRegister(ctx context.Context, req *Request) *Response {
	if d.store == nil {
		return errorResponse(req.ID, intent.CodeInternal, "No handler store configured", true)
	}

	var h catalog.Handler
	if err := decodeParams(req.Params, &h); err != nil {
		return errorResponse(req.ID, intent.CodeInvalidArgument, "Failed to parse register params", false)
	}
	if err := h.Validate(); err != nil {
		return errorToResponse(req.ID, err)
	}
	h = h.Normalized()

	if err := d.store.UpsertHandler(ctx, h); err != nil {
		return errorToResponse(req.ID, err)
	}
	d.publish(ctx, events.NewHandlerChangedEvent(h.Package, events.ChangeInstalled, h.Verbs))
	return &Response{ID: req.ID, Ok: true, Result: h}
}

func (d *Dispatcher) handleUnregister(ctx context.Context, req *Request) *Response {
	if d.store == nil {
		return errorResponse(req.ID, intent.CodeInternal, "No handler store configured", true)
	}

	var input UnregisterParams
	if err := decodeParams(req.Params, &input); err != nil || input.Package == "" {
		return errorResponse(req.ID, intent.CodeInvalidArgument, "Failed to parse unregister params", false)
	}

	removed, err := d.store.DeleteHandler(ctx, input.Package)
	if err != nil {
		return errorToResponse(req.ID, err)
	}
	if removed {
		d.publish(ctx, events.NewHandlerChangedEvent(input.Package, events.ChangeUninstalled, nil))
	}
	return &Response{ID: req.ID, Ok: true, Result: &UnregisterResult{Removed: removed}}
}

// Health checks the handler store.
func (d *Dispatcher) Health(ctx context.Context) *HealthResult {
	storeOk := d.store != nil && d.store.Ping(ctx) == nil

	status := "healthy"
	if !storeOk {
		status = "unhealthy"
	}
	return &HealthResult{
		Status:    status,
		Store:     storeOk,
		Catalog:   d.catalog,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// publish logs and drops publisher errors; the store change already happened.
func (d *Dispatcher) publish(ctx context.Context, event *events.HandlerChangedEvent) {
	if err := d.publisher.PublishChanged(ctx, event); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish %s event for %s: %v", logPrefix, event.Change, event.Package, err))
	}
}

// --- helpers ---

func decodeParams(raw json.RawMessage, out interface{}) error {
	return commsutil.DecodePayload(raw, out)
}

func errorResponse(id, code, message string, retryable bool) *Response {
	return &Response{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}

// probeFailure keeps structured errors and wraps anything else as PROBE_FAILURE.
func probeFailure(err error) error {
	var ie *intent.Error
	if errors.As(err, &ie) {
		return ie
	}
	return &intent.Error{Code: intent.CodeProbeFailure, Message: err.Error()}
}

func errorToResponse(id string, err error) *Response {
	var ie *intent.Error
	if errors.As(err, &ie) {
		retryable := ie.Code == intent.CodeInternal || ie.Code == intent.CodeProbeFailure
		return &Response{
			ID: id,
			Ok: false,
			Error: &ErrorDetail{
				Code:      ie.Code,
				Message:   ie.Message,
				Details:   ie.Details,
				Retryable: retryable,
			},
		}
	}
	return errorResponse(id, intent.CodeInternal, err.Error(), true)
}
