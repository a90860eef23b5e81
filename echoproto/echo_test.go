package echoproto

import (
	"context"
	"testing"
	"time"

	"github.com/dora-gt/interledger-go/ilppacket"
	"github.com/dora-gt/interledger-go/ilpservice"
	"github.com/stretchr/testify/require"
)

type testAccount struct {
	id string
}

func (a testAccount) ID() string                         { return a.id }
func (a testAccount) Username() string                   { return a.id }
func (a testAccount) ILPAddress() ilppacket.Address       { return "" }
func (a testAccount) AssetCode() string                   { return "USD" }
func (a testAccount) AssetScale() uint8                   { return 2 }

func mustAddress(t *testing.T, s string) ilppacket.Address {
	t.Helper()
	addr, err := ilppacket.NewAddress(s)
	require.NoError(t, err)
	return addr
}

func passthroughNext(t *testing.T) ilpservice.IncomingService[testAccount] {
	return ilpservice.IncomingServiceFunc[testAccount](
		func(ctx context.Context, req ilpservice.IncomingRequest[testAccount], reqCtx ilpservice.RequestContext) (*ilppacket.Fulfill, error) {
			return ilppacket.FulfillBuilder{}.Build()
		},
	)
}

func TestEchoForwardsNonSelfAddressed(t *testing.T) {
	ownAddress := mustAddress(t, "g.node")
	other := mustAddress(t, "g.elsewhere")

	var reachedNext bool
	next := ilpservice.IncomingServiceFunc[testAccount](
		func(ctx context.Context, req ilpservice.IncomingRequest[testAccount], reqCtx ilpservice.RequestContext) (*ilppacket.Fulfill, error) {
			reachedNext = true
			require.Equal(t, other, req.Prepare.Destination())
			return ilppacket.FulfillBuilder{}.Build()
		},
	)

	svc := NewService[testAccount](next)

	prepare, err := ilppacket.PrepareBuilder{
		Destination: other,
		ExpiresAt:   time.Now().Add(time.Minute),
	}.Build()
	require.NoError(t, err)

	_, err = svc.HandleRequest(
		context.Background(),
		ilpservice.IncomingRequest[testAccount]{From: testAccount{id: "1"}, Prepare: prepare},
		ilpservice.NewRequestContext(ownAddress),
	)
	require.NoError(t, err)
	require.True(t, reachedNext)
}

func TestEchoRewritesValidRequest(t *testing.T) {
	ownAddress := mustAddress(t, "g.node")
	source := mustAddress(t, "g.alice")

	expiry := time.Now().Add(time.Minute)
	prepare, err := ilppacket.PrepareBuilder{
		Destination: ownAddress,
		ExpiresAt:   expiry,
		Data:        BuildRequestData(source),
	}.Build()
	require.NoError(t, err)

	var rewritten *ilppacket.Prepare
	next := ilpservice.IncomingServiceFunc[testAccount](
		func(ctx context.Context, req ilpservice.IncomingRequest[testAccount], reqCtx ilpservice.RequestContext) (*ilppacket.Fulfill, error) {
			rewritten = req.Prepare
			return ilppacket.FulfillBuilder{}.Build()
		},
	)

	svc := NewService[testAccount](next)
	_, err = svc.HandleRequest(
		context.Background(),
		ilpservice.IncomingRequest[testAccount]{From: testAccount{id: "1"}, Prepare: prepare},
		ilpservice.NewRequestContext(ownAddress),
	)
	require.NoError(t, err)
	require.NotNil(t, rewritten)
	require.Equal(t, source, rewritten.Destination())
	require.True(t, rewritten.ExpiresAt().Equal(expiry.Add(-time.Second).UTC()))
	require.Equal(t, append(append([]byte{}, echoPrefix...), typeResponse), rewritten.Data())
}

func TestEchoRejectsShortData(t *testing.T) {
	ownAddress := mustAddress(t, "g.node")

	prepare, err := ilppacket.PrepareBuilder{
		Destination: ownAddress,
		ExpiresAt:   time.Now().Add(time.Minute),
		Data:        []byte("short"),
	}.Build()
	require.NoError(t, err)

	svc := NewService[testAccount](passthroughNext(t))
	_, err = svc.HandleRequest(
		context.Background(),
		ilpservice.IncomingRequest[testAccount]{From: testAccount{id: "1"}, Prepare: prepare},
		ilpservice.NewRequestContext(ownAddress),
	)
	require.Error(t, err)

	var rejErr *ilpservice.RejectError
	require.ErrorAs(t, err, &rejErr)
	require.Equal(t, ilppacket.CodeF01InvalidPacket, rejErr.Reject.Code())
}

func TestEchoRejectsBadPrefix(t *testing.T) {
	ownAddress := mustAddress(t, "g.node")

	data := append([]byte("NOTECHOPREFIXXXX"), 0)
	prepare, err := ilppacket.PrepareBuilder{
		Destination: ownAddress,
		ExpiresAt:   time.Now().Add(time.Minute),
		Data:        data,
	}.Build()
	require.NoError(t, err)

	svc := NewService[testAccount](passthroughNext(t))
	_, err = svc.HandleRequest(
		context.Background(),
		ilpservice.IncomingRequest[testAccount]{From: testAccount{id: "1"}, Prepare: prepare},
		ilpservice.NewRequestContext(ownAddress),
	)
	require.Error(t, err)
}

func TestEchoRejectsUnexpectedResponse(t *testing.T) {
	ownAddress := mustAddress(t, "g.node")

	data := append(append([]byte{}, echoPrefix...), typeResponse)
	prepare, err := ilppacket.PrepareBuilder{
		Destination: ownAddress,
		ExpiresAt:   time.Now().Add(time.Minute),
		Data:        data,
	}.Build()
	require.NoError(t, err)

	svc := NewService[testAccount](passthroughNext(t))
	_, err = svc.HandleRequest(
		context.Background(),
		ilpservice.IncomingRequest[testAccount]{From: testAccount{id: "1"}, Prepare: prepare},
		ilpservice.NewRequestContext(ownAddress),
	)
	require.Error(t, err)

	var rejErr *ilpservice.RejectError
	require.ErrorAs(t, err, &rejErr)
	require.Contains(t, rejErr.Reject.Message(), "unexpected echo response")
}
