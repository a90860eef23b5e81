package healthcheck

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dora-gt/interledger-go/ilppacket"
	"github.com/dora-gt/interledger-go/ilpservice"
)

type testAccount struct {
	id         string
	ilpAddress ilppacket.Address
}

func (a testAccount) ID() string                    { return a.id }
func (a testAccount) Username() string              { return a.id }
func (a testAccount) ILPAddress() ilppacket.Address { return a.ilpAddress }
func (a testAccount) AssetCode() string             { return "USD" }
func (a testAccount) AssetScale() uint8             { return 2 }

func TestPeerLivenessCheckSucceedsOnFulfill(t *testing.T) {
	self := testAccount{id: "1", ilpAddress: "g.self"}
	peer := testAccount{id: "2", ilpAddress: "g.peer"}

	fulfill, err := ilppacket.FulfillBuilder{}.Build()
	require.NoError(t, err)

	outgoing := ilpservice.OutgoingServiceFunc[testAccount](
		func(ctx context.Context, req ilpservice.OutgoingRequest[testAccount], reqCtx ilpservice.RequestContext) (*ilppacket.Fulfill, error) {
			require.Equal(t, peer.ilpAddress, req.Prepare.Destination())
			return fulfill, nil
		},
	)

	obs := NewPeerLivenessCheck[testAccount](
		outgoing, self, peer, ilpservice.RequestContext{},
		time.Second, 50*time.Millisecond, time.Millisecond, 1,
	)
	require.NoError(t, obs.Check())
}

func TestPeerLivenessCheckSucceedsOnReject(t *testing.T) {
	self := testAccount{id: "1", ilpAddress: "g.self"}
	peer := testAccount{id: "2", ilpAddress: "g.peer"}

	reject, err := ilppacket.RejectBuilder{Code: ilppacket.CodeF00BadRequest}.Build()
	require.NoError(t, err)

	outgoing := ilpservice.OutgoingServiceFunc[testAccount](
		func(ctx context.Context, req ilpservice.OutgoingRequest[testAccount], reqCtx ilpservice.RequestContext) (*ilppacket.Fulfill, error) {
			return nil, ilpservice.NewRejectError(reject)
		},
	)

	obs := NewPeerLivenessCheck[testAccount](
		outgoing, self, peer, ilpservice.RequestContext{},
		time.Second, 50*time.Millisecond, time.Millisecond, 1,
	)
	require.NoError(t, obs.Check())
}

func TestPeerLivenessCheckFailsOnTransportError(t *testing.T) {
	self := testAccount{id: "1", ilpAddress: "g.self"}
	peer := testAccount{id: "2", ilpAddress: "g.peer"}

	outgoing := ilpservice.OutgoingServiceFunc[testAccount](
		func(ctx context.Context, req ilpservice.OutgoingRequest[testAccount], reqCtx ilpservice.RequestContext) (*ilppacket.Fulfill, error) {
			return nil, errors.New("connection refused")
		},
	)

	obs := NewPeerLivenessCheck[testAccount](
		outgoing, self, peer, ilpservice.RequestContext{},
		time.Second, 50*time.Millisecond, time.Millisecond, 1,
	)
	require.Error(t, obs.Check())
}
