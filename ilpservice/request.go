package ilpservice

import (
	"github.com/dora-gt/interledger-go/ilppacket"
)

// IncomingRequest pairs an inbound Prepare with the account it arrived
// from. It is created at the transport boundary and, aside from whole-field
// rewrites by in-pipeline handlers like the Echo service, flows unchanged
// down the incoming chain until a routing stage turns it into an
// OutgoingRequest.
type IncomingRequest[A Account] struct {
	From    A
	Prepare *ilppacket.Prepare
}

// IntoOutgoing converts this IncomingRequest into an OutgoingRequest bound
// for `to`, capturing the current Prepare.Amount() as OriginalAmount. This
// capture happens exactly once, at the routing stage that first learns the
// next hop; later FX stages may rewrite Prepare.Amount but must never touch
// OriginalAmount, since it is what a sender-side sanity check compares
// against.
func (r IncomingRequest[A]) IntoOutgoing(to A) OutgoingRequest[A] {
	return OutgoingRequest[A]{
		From:           r.From,
		To:             to,
		OriginalAmount: r.Prepare.Amount(),
		Prepare:        r.Prepare,
	}
}

// OutgoingRequest is an IncomingRequest with a next hop selected by a
// routing stage.
type OutgoingRequest[A Account] struct {
	From           A
	To             A
	OriginalAmount uint64
	Prepare        *ilppacket.Prepare
}

// RequestContext is the per-request snapshot of node-global state threaded
// alongside every request. Today it holds only the node's own ILP address,
// separated out from the request so the address can be set late (e.g.
// learned from a parent via ILDCP after startup) without the handler chain
// needing to reference any node-global mutable state directly.
type RequestContext struct {
	// ILPAddress is the node's own address, as of the moment this
	// request began dispatch. It stays fixed for the life of the
	// request even if a concurrent writer updates the node's address in
	// the meantime.
	ILPAddress ilppacket.Address
}

// NewRequestContext builds a RequestContext snapshot.
func NewRequestContext(ilpAddress ilppacket.Address) RequestContext {
	return RequestContext{ILPAddress: ilpAddress}
}
