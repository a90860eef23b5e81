// Package echoproto implements the Echo sub-protocol: an in-pipeline
// incoming handler that answers self-addressed liveness probes by
// rewriting them into a response prepare and forwarding it back out
// through the node's own outgoing pipeline, rather than synthesizing a
// fulfillment directly.
package echoproto

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dora-gt/interledger-go/ilppacket"
	"github.com/dora-gt/interledger-go/ilpservice"
)

// echoPrefix leads every echo request and response payload.
var echoPrefix = []byte("ECHOECHOECHOECHO")

const (
	minDataLength = 17

	typeRequest  byte = 0
	typeResponse byte = 1
)

// NewService wraps inner with an Echo handler for account type A. A
// self-addressed Prepare (destination equal to reqCtx.ILPAddress) is
// inspected and, if it is a well-formed echo request, rewritten into a
// response and forwarded on to inner so it routes back out; any other
// Prepare passes through to inner untouched.
func NewService[A ilpservice.Account](
	inner ilpservice.IncomingService[A],
) ilpservice.IncomingService[A] {

	return ilpservice.WrapIncoming[A](inner, func(
		ctx context.Context,
		request ilpservice.IncomingRequest[A],
		reqCtx ilpservice.RequestContext,
		next ilpservice.IncomingService[A],
	) (*ilppacket.Fulfill, error) {

		if request.Prepare.Destination() != reqCtx.ILPAddress {
			return next.HandleRequest(ctx, request, reqCtx)
		}

		rewritten, err := handleEcho(request.Prepare, reqCtx.ILPAddress)
		if err != nil {
			log.Debugf("rejecting malformed echo packet: %v", err)
			return nil, err
		}

		request.Prepare = rewritten
		return next.HandleRequest(ctx, request, reqCtx)
	})
}

// handleEcho validates data as an echo request and returns a Prepare
// rewritten to carry the response back to its source, or a *RejectError.
func handleEcho(
	prepare *ilppacket.Prepare,
	ownAddress ilppacket.Address,
) (*ilppacket.Prepare, error) {

	data := prepare.Data()

	if len(data) < minDataLength {
		return nil, reject(ownAddress, fmt.Sprintf(
			"echo packet data too short: %d bytes, need at least %d",
			len(data), minDataLength,
		))
	}

	if !bytes.Equal(data[:len(echoPrefix)], echoPrefix) {
		return nil, reject(ownAddress, "packet data does not start with ECHO prefix.")
	}

	echoType := data[len(echoPrefix)]
	if echoType == typeResponse {
		return nil, reject(ownAddress, "unexpected echo response.")
	}
	if echoType != typeRequest {
		return nil, reject(ownAddress, fmt.Sprintf("unknown echo packet type %d", echoType))
	}

	r := ilppacket.NewOerReader(data[len(echoPrefix)+1:])
	sourceRaw, err := ilppacket.ReadVarOctetString(r)
	if err != nil {
		return nil, reject(ownAddress, err.Error())
	}

	sourceAddress, err := ilppacket.NewAddress(string(sourceRaw))
	if err != nil {
		return nil, reject(ownAddress, "invalid echo source address: "+err.Error())
	}

	response := prepare.Clone()
	response.SetDestination(sourceAddress)
	response.SetExpiresAt(prepare.ExpiresAt().Add(-time.Second))
	response.SetData(append(append([]byte{}, echoPrefix...), typeResponse))

	return response, nil
}

// BuildRequestData constructs the data payload of an echo request whose
// response should be sent back to ownAddress, the source address it
// carries, for use by a diagnostic client that wants to probe a peer's
// liveness.
func BuildRequestData(ownAddress ilppacket.Address) []byte {
	var buf bytes.Buffer
	buf.Write(echoPrefix)
	buf.WriteByte(typeRequest)
	ilppacket.WriteVarOctetString(&buf, []byte(ownAddress))

	return buf.Bytes()
}

// reject builds the standard F01 rejection this handler emits for every
// malformed echo packet.
func reject(ownAddress ilppacket.Address, message string) error {
	r, err := ilppacket.RejectBuilder{
		Code:        ilppacket.CodeF01InvalidPacket,
		TriggeredBy: ownAddress,
		Message:     message,
	}.Build()
	if err != nil {
		// RejectBuilder only fails on an oversized message, which none
		// of this handler's fixed strings can trigger.
		panic(err)
	}

	return ilpservice.NewRejectError(r)
}
