package ilphttp

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dora-gt/interledger-go/ilppacket"
	"github.com/dora-gt/interledger-go/ilpservice"
)

type testAccount struct {
	id       string
	username string
}

func (a testAccount) ID() string                    { return a.id }
func (a testAccount) Username() string              { return a.username }
func (a testAccount) ILPAddress() ilppacket.Address { return "" }
func (a testAccount) AssetCode() string             { return "USD" }
func (a testAccount) AssetScale() uint8             { return 2 }

type memStore map[string]testAccount

func (s memStore) GetAccountFromHttpAuth(username, password string) (testAccount, error) {
	acct, ok := s[username+":"+password]
	if !ok {
		return testAccount{}, &ilppacket.ParseError{Message: "unknown"}
	}
	return acct, nil
}

func mustAddr(t *testing.T, s string) ilppacket.Address {
	t.Helper()
	a, err := ilppacket.NewAddress(s)
	require.NoError(t, err)
	return a
}

func mustPreparePacket(t *testing.T, dest ilppacket.Address, data []byte) []byte {
	t.Helper()
	p, err := ilppacket.PrepareBuilder{
		Amount:      100,
		ExpiresAt:   time.Now().Add(time.Minute),
		Destination: dest,
	}.Build()
	require.NoError(t, err)

	// SetData skips the builder's MaxDataLength check, which lets the
	// size-limit tests build bodies at and beyond MaxBodyBytes.
	p.SetData(data)

	encoded, err := ilppacket.Encode(p)
	require.NoError(t, err)
	return encoded
}

func newTestServer(
	t *testing.T,
	store memStore,
	incoming ilpservice.IncomingService[testAccount],
) *Server[testAccount] {

	t.Helper()
	addrStore := ilpservice.NewMemoryAddressStore(mustAddr(t, "g.self"))
	return NewServer[testAccount]("127.0.0.1:0", store, addrStore, incoming)
}

func doRequest(t *testing.T, srv *Server[testAccount], auth string, body []byte) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ilp", bytes.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	srv.handleILP(rec, req)
	return rec.Result()
}

func TestHandleILPFulfillsAndReturns200(t *testing.T) {
	store := memStore{"alice:secret": {id: "1", username: "alice"}}

	fulfill, err := ilppacket.FulfillBuilder{Data: []byte("ok")}.Build()
	require.NoError(t, err)

	incoming := ilpservice.IncomingServiceFunc[testAccount](
		func(ctx context.Context, req ilpservice.IncomingRequest[testAccount], reqCtx ilpservice.RequestContext) (*ilppacket.Fulfill, error) {
			require.Equal(t, "1", req.From.ID())
			return fulfill, nil
		},
	)

	srv := newTestServer(t, store, incoming)
	body := mustPreparePacket(t, mustAddr(t, "g.bob"), nil)

	resp := doRequest(t, srv, "Bearer alice:secret", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	decoded, err := ilppacket.Decode(respBody)
	require.NoError(t, err)
	got, ok := decoded.(*ilppacket.Fulfill)
	require.True(t, ok)
	require.Equal(t, fulfill.Data(), got.Data())
}

func TestHandleILPRejectPassesThroughUnchanged(t *testing.T) {
	store := memStore{"alice:secret": {id: "1", username: "alice"}}

	reject, err := ilppacket.RejectBuilder{
		Code:        ilppacket.CodeT04InsufficientLiquidity,
		TriggeredBy: mustAddr(t, "g.bob"),
		Message:     "insufficient liquidity",
	}.Build()
	require.NoError(t, err)

	incoming := ilpservice.IncomingServiceFunc[testAccount](
		func(ctx context.Context, req ilpservice.IncomingRequest[testAccount], reqCtx ilpservice.RequestContext) (*ilppacket.Fulfill, error) {
			return nil, ilpservice.NewRejectError(reject)
		},
	)

	srv := newTestServer(t, store, incoming)
	body := mustPreparePacket(t, mustAddr(t, "g.bob"), nil)

	resp := doRequest(t, srv, "Bearer alice:secret", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	decoded, err := ilppacket.Decode(respBody)
	require.NoError(t, err)
	got, ok := decoded.(*ilppacket.Reject)
	require.True(t, ok)
	require.Equal(t, ilppacket.Address("g.bob"), got.TriggeredBy())
	require.Equal(t, "insufficient liquidity", got.Message())
}

func TestHandleILPUnknownAccountReturns401(t *testing.T) {
	store := memStore{}
	incoming := ilpservice.IncomingServiceFunc[testAccount](
		func(ctx context.Context, req ilpservice.IncomingRequest[testAccount], reqCtx ilpservice.RequestContext) (*ilppacket.Fulfill, error) {
			t.Fatal("incoming pipeline should not be reached")
			return nil, nil
		},
	)

	srv := newTestServer(t, store, incoming)
	body := mustPreparePacket(t, mustAddr(t, "g.bob"), nil)

	resp := doRequest(t, srv, "Bearer ghost:nope", body)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleILPMissingAuthReturns401(t *testing.T) {
	store := memStore{}
	incoming := ilpservice.IncomingServiceFunc[testAccount](
		func(ctx context.Context, req ilpservice.IncomingRequest[testAccount], reqCtx ilpservice.RequestContext) (*ilppacket.Fulfill, error) {
			t.Fatal("incoming pipeline should not be reached")
			return nil, nil
		},
	)

	srv := newTestServer(t, store, incoming)
	body := mustPreparePacket(t, mustAddr(t, "g.bob"), nil)

	resp := doRequest(t, srv, "", body)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleILPMalformedBodyReturns400(t *testing.T) {
	store := memStore{"alice:secret": {id: "1", username: "alice"}}
	incoming := ilpservice.IncomingServiceFunc[testAccount](
		func(ctx context.Context, req ilpservice.IncomingRequest[testAccount], reqCtx ilpservice.RequestContext) (*ilppacket.Fulfill, error) {
			t.Fatal("incoming pipeline should not be reached")
			return nil, nil
		},
	)

	srv := newTestServer(t, store, incoming)
	resp := doRequest(t, srv, "Bearer alice:secret", []byte{0xFF, 0xFF, 0xFF})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleILPOversizedBodyReturns413(t *testing.T) {
	store := memStore{"alice:secret": {id: "1", username: "alice"}}
	incoming := ilpservice.IncomingServiceFunc[testAccount](
		func(ctx context.Context, req ilpservice.IncomingRequest[testAccount], reqCtx ilpservice.RequestContext) (*ilppacket.Fulfill, error) {
			t.Fatal("incoming pipeline should not be reached")
			return nil, nil
		},
	)

	srv := newTestServer(t, store, incoming)
	body := mustPreparePacket(t, mustAddr(t, "g.bob"), bytes.Repeat([]byte{0}, MaxBodyBytes))

	resp := doRequest(t, srv, "Bearer alice:secret", body)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestHandleILPAcceptsBodyWithinLimit(t *testing.T) {
	store := memStore{"alice:secret": {id: "1", username: "alice"}}

	fulfill, err := ilppacket.FulfillBuilder{}.Build()
	require.NoError(t, err)

	incoming := ilpservice.IncomingServiceFunc[testAccount](
		func(ctx context.Context, req ilpservice.IncomingRequest[testAccount], reqCtx ilpservice.RequestContext) (*ilppacket.Fulfill, error) {
			return fulfill, nil
		},
	)

	srv := newTestServer(t, store, incoming)

	// Build a Prepare whose encoded size is exactly MaxBodyBytes by padding
	// its data field. Growing the data past 255 bytes widens both the data
	// length prefix and the outer content length prefix from 1 to 3 bytes,
	// so the padding is 4 bytes short of the gap.
	base := mustPreparePacket(t, mustAddr(t, "g.bob"), nil)
	pad := MaxBodyBytes - len(base)
	require.True(t, pad > 0)
	body := mustPreparePacket(t, mustAddr(t, "g.bob"), bytes.Repeat([]byte{0}, pad-4))
	require.Equal(t, MaxBodyBytes, len(body))

	resp := doRequest(t, srv, "Bearer alice:secret", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
