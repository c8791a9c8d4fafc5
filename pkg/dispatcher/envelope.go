// Package dispatcher routes incoming COMMS messages to builders, the fallback
// resolver and the handler store.
package dispatcher

import (
	"encoding/json"

	"github.com/morezero/intents/pkg/catalog"
	"github.com/morezero/intents/pkg/intent"
)

// Request is the JSON envelope for incoming COMMS requests.
type Request struct {
	ID     string             `json:"id"`
	Method string             `json:"method"`
	Params json.RawMessage    `json:"params,omitempty"`
	Ctx    *InvocationContext `json:"ctx,omitempty"`
}

// Response is the JSON envelope for COMMS responses.
type Response struct {
	ID     string       `json:"id"`
	Ok     bool         `json:"ok"`
	Result interface{}  `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable"`
}

// InvocationContext holds context from the caller.
type InvocationContext struct {
	RequestID     string `json:"requestId,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
	DeadlineMs    int64  `json:"deadlineMs,omitempty"`
	TimeoutMs     int    `json:"timeoutMs,omitempty"`
}

// Method names.
const (
	MethodBuild      = "build"
	MethodResolve    = "resolve"
	MethodProbe      = "probe"
	MethodHandlers   = "handlers"
	MethodRegister   = "register"
	MethodUnregister = "unregister"
	MethodHealth     = "health"
)

// BuildParams selects a builder by name. Args are the builder's JSON arguments.
type BuildParams struct {
	Builder string          `json:"builder"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// BuildResult lists the candidates a builder produced, most preferred first.
type BuildResult struct {
	Builder    string           `json:"builder"`
	Candidates []intent.Request `json:"candidates"`
}

// ResolveParams resolves either the output of a builder or explicit candidates.
type ResolveParams struct {
	Builder    string           `json:"builder,omitempty"`
	Args       json.RawMessage  `json:"args,omitempty"`
	Candidates []intent.Request `json:"candidates,omitempty"`
}

// ProbeParams asks whether a single request could be dispatched.
type ProbeParams struct {
	Request intent.Request `json:"request"`
}

// ProbeResult reports availability and, for local probes, the matching handlers.
type ProbeResult struct {
	Available bool              `json:"available"`
	Handlers  []catalog.Handler `json:"handlers,omitempty"`
}

// UnregisterParams names the package to remove.
type UnregisterParams struct {
	Package string `json:"package"`
}

// UnregisterResult reports whether the package was installed.
type UnregisterResult struct {
	Removed bool `json:"removed"`
}

// HealthResult is the health method output.
type HealthResult struct {
	Status    string `json:"status"`
	Store     bool   `json:"store"`
	Catalog   string `json:"catalog,omitempty"`
	Timestamp string `json:"timestamp"`
}
