package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/intents/pkg/catalog"
	"github.com/morezero/intents/pkg/commsutil"
	"github.com/morezero/intents/pkg/intent"
	"github.com/morezero/intents/pkg/resolver"
)

const clientLogPrefix = "dispatcher:client"

// Client calls a remote dispatcher over COMMS. It also implements
// resolver.Probe, so a resolver can probe handlers installed elsewhere.
type Client struct {
	nc      *comms.Conn
	subject string
	timeout time.Duration
}

var _ resolver.Probe = (*Client)(nil)

// NewClientParams holds parameters for NewClient.
type NewClientParams struct {
	Conn    *comms.Conn
	Subject string
	// Timeout applies when ctx has no deadline. Defaults to 10s.
	Timeout time.Duration
}

// NewClient creates a new Client.
func NewClient(params NewClientParams) *Client {
	subject := params.Subject
	if subject == "" {
		subject = commsutil.SubjectIntents
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{nc: params.Conn, subject: subject, timeout: timeout}
}

type clientResponse struct {
	ID     string          `json:"id"`
	Ok     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorDetail    `json:"error,omitempty"`
}

// Call invokes method with params and decodes the result into out (which may be nil).
// Remote failures are returned as *intent.Error.
func (c *Client) Call(ctx context.Context, method string, params, out interface{}) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := Request{ID: uuid.NewString(), Method: method}
	if params != nil {
		raw, err := commsutil.EncodePayload(params)
		if err != nil {
			return fmt.Errorf("%s - failed to encode %s params: %w", clientLogPrefix, method, err)
		}
		req.Params = raw
	}
	req.Ctx = &InvocationContext{RequestID: req.ID}
	if deadline, ok := ctx.Deadline(); ok {
		req.Ctx.TimeoutMs = int(time.Until(deadline).Milliseconds())
	}

	var resp clientResponse
	if err := commsutil.Request(ctx, c.nc, c.subject, &req, &resp); err != nil {
		return err
	}
	if !resp.Ok {
		if resp.Error == nil {
			return intent.NewError(intent.CodeInternal, "remote call failed without error detail")
		}
		return &intent.Error{Code: resp.Error.Code, Message: resp.Error.Message, Details: resp.Error.Details}
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := commsutil.DecodePayload(resp.Result, out); err != nil {
		return fmt.Errorf("%s - failed to decode %s result: %w", clientLogPrefix, method, err)
	}
	return nil
}

// Build runs a remote builder. args is encoded as the builder's JSON arguments.
func (c *Client) Build(ctx context.Context, builder string, args interface{}) ([]intent.Request, error) {
	params := BuildParams{Builder: builder}
	if args != nil {
		raw, err := commsutil.EncodePayload(args)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to encode builder args: %w", clientLogPrefix, err)
		}
		params.Args = raw
	}
	var out BuildResult
	if err := c.Call(ctx, MethodBuild, &params, &out); err != nil {
		return nil, err
	}
	return out.Candidates, nil
}

// Resolve runs the fallback resolver remotely.
func (c *Client) Resolve(ctx context.Context, params ResolveParams) (resolver.Result, error) {
	var out resolver.Result
	if err := c.Call(ctx, MethodResolve, &params, &out); err != nil {
		return resolver.Result{Index: -1}, err
	}
	return out, nil
}

// Available implements resolver.Probe.
func (c *Client) Available(ctx context.Context, req intent.Request) (bool, error) {
	var out ProbeResult
	if err := c.Call(ctx, MethodProbe, &ProbeParams{Request: req}, &out); err != nil {
		return false, err
	}
	return out.Available, nil
}

// Handlers lists the remote handler store.
func (c *Client) Handlers(ctx context.Context) ([]catalog.Handler, error) {
	var out []catalog.Handler
	if err := c.Call(ctx, MethodHandlers, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Register installs h remotely.
func (c *Client) Register(ctx context.Context, h catalog.Handler) error {
	return c.Call(ctx, MethodRegister, &h, nil)
}

// Unregister removes pkg remotely and reports whether it was installed.
func (c *Client) Unregister(ctx context.Context, pkg string) (bool, error) {
	var out UnregisterResult
	if err := c.Call(ctx, MethodUnregister, &UnregisterParams{Package: pkg}, &out); err != nil {
		return false, err
	}
	return out.Removed, nil
}

// Health fetches the remote health result.
func (c *Client) Health(ctx context.Context) (*HealthResult, error) {
	var out HealthResult
	if err := c.Call(ctx, MethodHealth, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
