package ildcp

import (
	"context"
	"fmt"

	"github.com/dora-gt/interledger-go/ilpservice"
)

// GetInfo asks a peer for our configuration: it dispatches an ILDCP
// request through service as if it arrived from fromAccount, and parses
// the resulting Fulfill payload as a Response. A protocol-level reject is
// surfaced as a generic error — policy about what to do with a parent that
// refuses ILDCP belongs to the caller, not here.
func GetInfo[A ilpservice.Account](
	ctx context.Context,
	service ilpservice.IncomingService[A],
	fromAccount A,
	reqCtx ilpservice.RequestContext,
) (*Response, error) {

	fulfill, err := service.HandleRequest(
		ctx,
		ilpservice.IncomingRequest[A]{From: fromAccount, Prepare: NewRequest()},
		reqCtx,
	)
	if err != nil {
		log.Errorf("error getting ILDCP info: %v", err)
		return nil, fmt.Errorf("ildcp request failed: %w", err)
	}

	response, err := DecodeResponse(fulfill.Data())
	if err != nil {
		log.Errorf("unable to parse ILDCP response: %v", err)
		return nil, fmt.Errorf("malformed ildcp response: %w", err)
	}

	log.Debugf("got ILDCP response: %+v", response)
	return response, nil
}
