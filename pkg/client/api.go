package client

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pulse-protocol/pulse-go/pkg/codec"
	"github.com/pulse-protocol/pulse-go/pkg/subscription"
	"github.com/pulse-protocol/pulse-go/pkg/wire"
)

// inboxPrefix namespaces the per-request reply subjects.
const inboxPrefix = "_INBOX."

// Subscribe registers a handler for all messages of type T on a subject.
// Handlers on the same subject share one wire subscription and must all use
// the same T. The returned handle detaches the handler when disposed; the
// wire subscription is cancelled when the last handle goes.
func Subscribe[T any](c *Conn, subject string, handler func(T)) (*subscription.Handle, error) {
	return c.registry.Subscribe(subject, "", codec.TagOf[T](), handler)
}

// SubscribeQueue registers a handler in a queue group. The broker delivers
// each message to one member of the group. Distinct queue groups on the same
// subject are independent wire subscriptions.
func SubscribeQueue[T any](c *Conn, subject, queue string, handler func(T)) (*subscription.Handle, error) {
	return c.registry.Subscribe(subject, queue, codec.TagOf[T](), handler)
}

// RespondTo registers a request handler for a subject. The handler's return
// value is encoded and sent to the requester; returning an error suppresses
// the reply and the requester times out. A subject serves either plain
// subscriptions or responders, never both.
func RespondTo[T, R any](c *Conn, subject string, handler func(T) (R, error)) (*subscription.Handle, error) {
	return c.registry.SubscribeRequest(subject, codec.TagOf[T](), codec.TagOf[R](), handler)
}

// Publish encodes v and sends it to a subject. Fire-and-forget: delivery is
// not acknowledged.
func Publish[T any](c *Conn, subject string, v T) error {
	data, err := wire.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return c.Publish(subject, data)
}

// Request sends req to a subject and waits for a typed response or context
// expiry. Each call subscribes a unique inbox subject for its reply, so
// concurrent requests never cross.
func Request[T, R any](ctx context.Context, c *Conn, subject string, req T) (R, error) {
	var zero R

	inbox := inboxPrefix + uuid.NewString()
	respCh := make(chan R, 1)

	h, err := c.registry.Subscribe(inbox, "", codec.TagOf[R](), func(resp R) {
		select {
		case respCh <- resp:
		default:
			// A duplicate reply after the first is dropped.
		}
	})
	if err != nil {
		return zero, fmt.Errorf("subscribe reply inbox: %w", err)
	}
	defer h.Dispose()

	data, err := wire.Marshal(req)
	if err != nil {
		return zero, fmt.Errorf("encode request: %w", err)
	}
	if err := c.publish(subject, inbox, data); err != nil {
		return zero, fmt.Errorf("send request: %w", err)
	}

	select {
	case resp := <-respCh:
		return resp, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
