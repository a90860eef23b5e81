package ildcp

import (
	"context"

	"github.com/dora-gt/interledger-go/ilppacket"
	"github.com/dora-gt/interledger-go/ilpservice"
)

// ChildConfigStore looks up the configuration a parent hands a child over
// ILDCP. A node acting as a parent implements this on top of whatever
// holds its account records; this package only needs the read path.
type ChildConfigStore[A ilpservice.Account] interface {
	// ConfigFor returns the Response to serve a request from account.
	ConfigFor(account A) (*Response, error)
}

// NewResponderService wraps inner with an ILDCP responder: a request
// addressed to peer.config is answered directly from store without
// reaching inner; any other request passes through unchanged. This is the
// parent-side counterpart to GetInfo, needed to run a node that other
// nodes can configure themselves against.
func NewResponderService[A ilpservice.Account](
	inner ilpservice.IncomingService[A],
	store ChildConfigStore[A],
) ilpservice.IncomingService[A] {

	return ilpservice.WrapIncoming[A](inner, func(
		ctx context.Context,
		request ilpservice.IncomingRequest[A],
		reqCtx ilpservice.RequestContext,
		next ilpservice.IncomingService[A],
	) (*ilppacket.Fulfill, error) {

		if request.Prepare.Destination() != DestinationAddress {
			return next.HandleRequest(ctx, request, reqCtx)
		}

		response, err := store.ConfigFor(request.From)
		if err != nil {
			log.Errorf("ildcp responder: no config for account %s: %v",
				request.From.ID(), err)

			reject, buildErr := ilppacket.RejectBuilder{
				Code:        ilppacket.CodeF00BadRequest,
				TriggeredBy: reqCtx.ILPAddress,
				Message:     "no ILDCP configuration for this account",
			}.Build()
			if buildErr != nil {
				panic(buildErr)
			}

			return nil, ilpservice.NewRejectError(reject)
		}

		return response.ToFulfill(), nil
	})
}
