package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/intents/pkg/commsutil"
)

// Subscribe serves d on subject. Each request gets a context bounded by
// timeout, or by the caller's shorter deadline when it carries one.
func Subscribe(ctx context.Context, nc *comms.Conn, subject string, d *Dispatcher, timeout time.Duration) (*comms.Subscription, error) {
	sub, err := nc.Subscribe(subject, func(msg *comms.Msg) {
		var req Request
		if err := commsutil.DecodePayload(msg.Data, &req); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
			respond(msg, &Response{
				Ok: false,
				Error: &ErrorDetail{
					Code:    "INVALID_REQUEST",
					Message: "Failed to decode request",
				},
			})
			return
		}

		reqCtx, cancel := requestContext(ctx, timeout, req.Ctx)
		defer cancel()

		respond(msg, d.Dispatch(reqCtx, &req))
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, subject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", logPrefix, subject))
	return sub, nil
}

func requestContext(ctx context.Context, timeout time.Duration, inv *InvocationContext) (context.Context, context.CancelFunc) {
	if inv != nil {
		ms := inv.DeadlineMs
		if ms <= 0 {
			ms = int64(inv.TimeoutMs)
		}
		if d := time.Duration(ms) * time.Millisecond; ms > 0 && d < timeout {
			return context.WithTimeout(ctx, d)
		}
	}
	return context.WithTimeout(ctx, timeout)
}

func respond(msg *comms.Msg, resp *Response) {
	data, err := commsutil.EncodePayload(resp)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to respond: %v", logPrefix, err))
	}
}
