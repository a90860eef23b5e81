package healthcheck

import (
	"context"
	"errors"
	"time"

	"github.com/dora-gt/interledger-go/echoproto"
	"github.com/dora-gt/interledger-go/ilppacket"
	"github.com/dora-gt/interledger-go/ilpservice"
)

// NewPeerLivenessCheck builds an Observation that probes peer with an Echo
// request over outgoing and considers the peer live if the send completes
// with either a Fulfill or a protocol-level Reject before timeout — either
// outcome proves the transport round-trip to peer is working. Only a
// transport-level failure (the SendRequest call itself erroring out, not as
// a *RejectError) counts as the peer being unreachable.
func NewPeerLivenessCheck[A ilpservice.Account](
	outgoing ilpservice.OutgoingService[A],
	self A,
	peer A,
	reqCtx ilpservice.RequestContext,
	interval, timeout, backoff time.Duration,
	attempts int,
) *Observation {

	check := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		prepare, err := ilppacket.PrepareBuilder{
			Destination: peer.ILPAddress(),
			ExpiresAt:   time.Now().Add(timeout),
			Data:        echoproto.BuildRequestData(self.ILPAddress()),
		}.Build()
		if err != nil {
			return err
		}

		_, err = outgoing.SendRequest(ctx, ilpservice.OutgoingRequest[A]{
			From:    self,
			To:      peer,
			Prepare: prepare,
		}, reqCtx)

		var rejErr *ilpservice.RejectError
		if err == nil || errors.As(err, &rejErr) {
			return nil
		}

		return err
	}

	return NewObservation(
		string(peer.ILPAddress()), check, interval, timeout, backoff, attempts,
	)
}
