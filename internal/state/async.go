package state

import "context"

// Pending is dispatched when an async operation starts.
type Pending struct {
	Type      string
	RequestID uint64
	Arg       any
}

func (a Pending) ActionType() string { return a.Type + "/pending" }

// Fulfilled carries the payload of a successful async operation.
type Fulfilled[T any] struct {
	Type      string
	RequestID uint64
	Arg       any
	Payload   T
}

func (a Fulfilled[T]) ActionType() string { return a.Type + "/fulfilled" }

// Rejected carries the error of a failed async operation.
type Rejected struct {
	Type      string
	RequestID uint64
	Arg       any
	Err       error
}

func (a Rejected) ActionType() string { return a.Type + "/rejected" }

// RunAsync runs fn between a Pending and a Fulfilled or Rejected action of the
// given type, all sharing one request id. The outcome is also returned to the
// caller.
func RunAsync[T any](ctx context.Context, d Dispatcher, typ string, arg any, fn func(context.Context) (T, error)) (T, error) {
	id := d.NextRequestID()
	d.Dispatch(Pending{Type: typ, RequestID: id, Arg: arg})
	payload, err := fn(ctx)
	if err != nil {
		d.Dispatch(Rejected{Type: typ, RequestID: id, Arg: arg, Err: err})
		var zero T
		return zero, err
	}
	d.Dispatch(Fulfilled[T]{Type: typ, RequestID: id, Arg: arg, Payload: payload})
	return payload, nil
}
