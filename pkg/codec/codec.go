package codec

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/pulse-protocol/pulse-go/pkg/wire"
)

// Codec errors.
var (
	ErrHandlerSignature = errors.New("handler signature mismatch")
	ErrNilPublisher     = errors.New("publisher not configured")
)

// Publisher sends an encoded response payload to a subject. Implemented by
// the client connection; the invoker uses it to deliver request replies.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// TagOf returns the reflect type used as the payload tag for T. Two
// subscriptions share handlers only when their tags are identical.
func TagOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Invoker decodes payloads and calls handlers. It satisfies the registry's
// invoker interface and is safe for concurrent use.
type Invoker struct {
	pub    Publisher
	logger *zap.Logger
}

// NewInvoker creates an invoker that publishes request replies through pub.
// pub may be nil for subscribe-only connections; logger may be nil.
func NewInvoker(pub Publisher, logger *zap.Logger) *Invoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{pub: pub, logger: logger}
}

// InvokeHandlers decodes data as payloadType and calls every occupied slot in
// handlers with the decoded value. Freed slots are nil and skipped. A payload
// that does not decode is dropped with a warning: one malformed message must
// not tear down the subscription.
func (iv *Invoker) InvokeHandlers(payloadType reflect.Type, data []byte, handlers []any) {
	arg, err := decodePayload(payloadType, data)
	if err != nil {
		iv.logger.Warn("dropping undecodable payload",
			zap.Stringer("type", payloadType), zap.Error(err))
		return
	}

	for _, h := range handlers {
		if h == nil {
			continue
		}
		fn := reflect.ValueOf(h)
		if !plainHandlerShape(fn.Type(), payloadType) {
			iv.logger.Warn("skipping handler with unexpected signature",
				zap.Stringer("want", payloadType), zap.Stringer("got", fn.Type()))
			continue
		}
		fn.Call([]reflect.Value{arg})
	}
}

// InvokeRequest decodes data as payloadType and calls the single handler,
// which must be a func(T) (R, error). A handler error is logged and the
// request goes unanswered; the requester times out. The response is encoded
// and published to reply when reply is non-empty.
func (iv *Invoker) InvokeRequest(payloadType, responseType reflect.Type, data []byte, reply string, handler any) error {
	fn := reflect.ValueOf(handler)
	if !requestHandlerShape(fn.Type(), payloadType, responseType) {
		return fmt.Errorf("%w: want func(%v) (%v, error), got %v",
			ErrHandlerSignature, payloadType, responseType, fn.Type())
	}

	arg, err := decodePayload(payloadType, data)
	if err != nil {
		return fmt.Errorf("decode request payload as %v: %w", payloadType, err)
	}

	out := fn.Call([]reflect.Value{arg})
	if errv := out[1]; !errv.IsNil() {
		iv.logger.Warn("request handler failed, not replying",
			zap.String("reply", reply), zap.Error(errv.Interface().(error)))
		return nil
	}

	if reply == "" {
		return nil
	}
	if iv.pub == nil {
		return ErrNilPublisher
	}

	encoded, err := wire.Marshal(out[0].Interface())
	if err != nil {
		return fmt.Errorf("encode response as %v: %w", responseType, err)
	}
	return iv.pub.Publish(reply, encoded)
}

func decodePayload(payloadType reflect.Type, data []byte) (reflect.Value, error) {
	ptr := reflect.New(payloadType)
	if err := wire.Unmarshal(data, ptr.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}

func plainHandlerShape(fn reflect.Type, payloadType reflect.Type) bool {
	return fn.Kind() == reflect.Func &&
		fn.NumIn() == 1 && fn.In(0) == payloadType &&
		fn.NumOut() == 0
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

func requestHandlerShape(fn reflect.Type, payloadType, responseType reflect.Type) bool {
	return fn.Kind() == reflect.Func &&
		fn.NumIn() == 1 && fn.In(0) == payloadType &&
		fn.NumOut() == 2 && fn.Out(0) == responseType && fn.Out(1) == errType
}
