// Package ilphttp terminates the ILP-over-HTTP transport: a single POST
// /ilp route that authenticates the peer, decodes a Prepare, dispatches it
// into the node's incoming pipeline, and returns the raw-binary result.
package ilphttp

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dora-gt/interledger-go/ilppacket"
	"github.com/dora-gt/interledger-go/ilpservice"
)

// MaxBodyBytes bounds an accepted request body.
const MaxBodyBytes = 40000

// Server terminates one ILP-over-HTTP peer link.
type Server[A ilpservice.Account] struct {
	store        HttpStore[A]
	addressStore ilpservice.AddressStore
	incoming     ilpservice.IncomingService[A]

	httpServer *http.Server
}

// NewServer builds a Server. addr is the listen address passed to
// http.Server; binding happens in Serve.
func NewServer[A ilpservice.Account](
	addr string,
	store HttpStore[A],
	addressStore ilpservice.AddressStore,
	incoming ilpservice.IncomingService[A],
) *Server[A] {

	s := &Server[A]{
		store:        store,
		addressStore: addressStore,
		incoming:     incoming,
	}

	router := chi.NewRouter()
	router.Post("/ilp", s.handleILP)

	s.httpServer = &http.Server{Addr: addr, Handler: router}

	return s
}

// Serve binds l (or, if l is nil, a listener on the Server's configured
// address) and blocks until ctx is cancelled or a fatal error occurs.
func (s *Server[A]) Serve(ctx context.Context, l net.Listener) error {
	errCh := make(chan error, 1)

	go func() {
		var err error
		if l != nil {
			err = s.httpServer.Serve(l)
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Infof("shutting down ILP-over-HTTP server")
		return s.httpServer.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

func (s *Server[A]) handleILP(w http.ResponseWriter, r *http.Request) {
	account, apiErr := s.authenticate(r)
	if apiErr != nil {
		log.Debugf("rejecting unauthenticated request: %v", apiErr)
		http.Error(w, apiErr.Error(), apiErr.StatusCode())
		return
	}

	body, apiErr := s.readBody(r)
	if apiErr != nil {
		log.Debugf("rejecting oversized request: %v", apiErr)
		http.Error(w, apiErr.Error(), apiErr.StatusCode())
		return
	}

	reqCtx := ilpservice.NewRequestContext(s.addressStore.Get())

	prepare, err := decodePrepare(body)
	if err != nil {
		log.Debugf("rejecting malformed packet: %v", err)
		http.Error(w, err.Error(), err.StatusCode())
		return
	}

	packet := s.dispatch(r.Context(), account, prepare, reqCtx)

	encoded, err2 := ilppacket.Encode(packet)
	if err2 != nil {
		// A packet built from this package's own Fulfill/Reject builders,
		// or one decoded off the wire, always re-encodes.
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(encoded)
}

func (s *Server[A]) authenticate(r *http.Request) (A, *apiError) {
	var zero A

	username, password, apiErr := parseAuth(r)
	if apiErr != nil {
		return zero, apiErr
	}

	account, err := s.store.GetAccountFromHttpAuth(username, password)
	if err != nil {
		return zero, authError("unknown account")
	}

	return account, nil
}

func (s *Server[A]) readBody(r *http.Request) ([]byte, *apiError) {
	limited := io.LimitReader(r.Body, MaxBodyBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, decodeError(err.Error())
	}
	if len(body) > MaxBodyBytes {
		return nil, sizeError("request body exceeds maximum size")
	}

	return body, nil
}

func decodePrepare(body []byte) (*ilppacket.Prepare, *apiError) {
	packet, err := ilppacket.Decode(body)
	if err != nil {
		return nil, decodeError(err.Error())
	}

	prepare, ok := packet.(*ilppacket.Prepare)
	if !ok {
		return nil, decodeError("expected a Prepare packet")
	}

	return prepare, nil
}

// dispatch runs the decoded Prepare through the incoming pipeline and
// returns whatever packet should be sent back: a Fulfill, or the Reject
// carried by a *RejectError. Any other error the pipeline returns, and any
// panic raised inside it, becomes a T00.
func (s *Server[A]) dispatch(
	ctx context.Context,
	account A,
	prepare *ilppacket.Prepare,
	reqCtx ilpservice.RequestContext,
) (packet ilppacket.Packet) {

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("incoming pipeline panicked: %v", r)
			packet, _ = ilppacket.RejectBuilder{
				Code:        ilppacket.CodeT00InternalError,
				TriggeredBy: reqCtx.ILPAddress,
				Message:     "internal error",
			}.Build()
		}
	}()

	fulfill, err := s.incoming.HandleRequest(
		ctx,
		ilpservice.IncomingRequest[A]{From: account, Prepare: prepare},
		reqCtx,
	)
	if err == nil {
		return fulfill
	}

	var rejErr *ilpservice.RejectError
	if errors.As(err, &rejErr) {
		return rejErr.Reject
	}

	log.Errorf("incoming pipeline returned a non-reject error: %v", err)
	reject, buildErr := ilppacket.RejectBuilder{
		Code:        ilppacket.CodeT00InternalError,
		TriggeredBy: reqCtx.ILPAddress,
		Message:     "internal error",
	}.Build()
	if buildErr != nil {
		panic(buildErr)
	}

	return reject
}
