package ilpservice

import (
	"context"

	"github.com/dora-gt/interledger-go/ilppacket"
)

// RejectError carries an ILP Reject as a Go error value. Every
// IncomingService/OutgoingService returns either a non-nil Fulfill or an
// error that is always a *RejectError — this is the idiomatic-Go shape of
// the Rust core's Future<Item = Fulfill, Error = Reject>. Use errors.As to
// recover the underlying Reject.
type RejectError struct {
	Reject *ilppacket.Reject
}

// Error implements the error interface.
func (e *RejectError) Error() string {
	return "ilp reject " + e.Reject.Code().String() + ": " + e.Reject.Message()
}

// NewRejectError wraps reject as an error.
func NewRejectError(reject *ilppacket.Reject) error {
	return &RejectError{Reject: reject}
}

// IncomingService processes an IncomingRequest and returns either a Fulfill
// or a *RejectError.
type IncomingService[A Account] interface {
	HandleRequest(
		ctx context.Context,
		request IncomingRequest[A],
		reqCtx RequestContext,
	) (*ilppacket.Fulfill, error)
}

// OutgoingService sends an OutgoingRequest and returns either a Fulfill or
// a *RejectError.
type OutgoingService[A Account] interface {
	SendRequest(
		ctx context.Context,
		request OutgoingRequest[A],
		reqCtx RequestContext,
	) (*ilppacket.Fulfill, error)
}

// IncomingServiceFunc adapts a plain function to IncomingService, the same
// way http.HandlerFunc adapts a function to http.Handler.
type IncomingServiceFunc[A Account] func(
	ctx context.Context,
	request IncomingRequest[A],
	reqCtx RequestContext,
) (*ilppacket.Fulfill, error)

// HandleRequest implements IncomingService.
func (f IncomingServiceFunc[A]) HandleRequest(
	ctx context.Context,
	request IncomingRequest[A],
	reqCtx RequestContext,
) (*ilppacket.Fulfill, error) {

	return f(ctx, request, reqCtx)
}

// OutgoingServiceFunc adapts a plain function to OutgoingService.
type OutgoingServiceFunc[A Account] func(
	ctx context.Context,
	request OutgoingRequest[A],
	reqCtx RequestContext,
) (*ilppacket.Fulfill, error)

// SendRequest implements OutgoingService.
func (f OutgoingServiceFunc[A]) SendRequest(
	ctx context.Context,
	request OutgoingRequest[A],
	reqCtx RequestContext,
) (*ilppacket.Fulfill, error) {

	return f(ctx, request, reqCtx)
}

// IncomingHandlerFunc is the shape of a wrap() middleware handler: it
// receives the request, context, and a clone of the inner service, and may
// short-circuit, forward unchanged, mutate-and-forward, or forward and
// transform the result.
type IncomingHandlerFunc[A Account] func(
	ctx context.Context,
	request IncomingRequest[A],
	reqCtx RequestContext,
	next IncomingService[A],
) (*ilppacket.Fulfill, error)

type wrappedIncomingService[A Account] struct {
	f     IncomingHandlerFunc[A]
	inner IncomingService[A]
}

// HandleRequest implements IncomingService.
func (w *wrappedIncomingService[A]) HandleRequest(
	ctx context.Context,
	request IncomingRequest[A],
	reqCtx RequestContext,
) (*ilppacket.Fulfill, error) {

	return w.f(ctx, request, reqCtx, w.inner)
}

// WrapIncoming builds a new IncomingService that calls f for every request,
// passing along a handle to inner. Composed chains are built once and
// shared across requests; wrappedIncomingService holds no per-request
// mutable state, so it is safe to reuse concurrently.
func WrapIncoming[A Account](
	inner IncomingService[A],
	f IncomingHandlerFunc[A],
) IncomingService[A] {

	return &wrappedIncomingService[A]{f: f, inner: inner}
}

// OutgoingHandlerFunc is the outgoing-side counterpart to
// IncomingHandlerFunc.
type OutgoingHandlerFunc[A Account] func(
	ctx context.Context,
	request OutgoingRequest[A],
	reqCtx RequestContext,
	next OutgoingService[A],
) (*ilppacket.Fulfill, error)

type wrappedOutgoingService[A Account] struct {
	f     OutgoingHandlerFunc[A]
	inner OutgoingService[A]
}

// SendRequest implements OutgoingService.
func (w *wrappedOutgoingService[A]) SendRequest(
	ctx context.Context,
	request OutgoingRequest[A],
	reqCtx RequestContext,
) (*ilppacket.Fulfill, error) {

	return w.f(ctx, request, reqCtx, w.inner)
}

// WrapOutgoing builds a new OutgoingService that calls f for every request,
// passing along a handle to inner.
func WrapOutgoing[A Account](
	inner OutgoingService[A],
	f OutgoingHandlerFunc[A],
) OutgoingService[A] {

	return &wrappedOutgoingService[A]{f: f, inner: inner}
}
