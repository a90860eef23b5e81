// Package ildcp implements the Interledger Dynamic Configuration Protocol:
// a child node asks its parent for the ILP address and asset parameters it
// has been assigned. Both the requesting client and, to supplement it, a
// responder a parent node can install on its own incoming pipeline live
// here.
package ildcp

import (
	"bytes"
	"crypto/sha256"
	"time"

	"github.com/dora-gt/interledger-go/ilppacket"
)

// DestinationAddress is the fixed, reserved destination every ILDCP
// request targets.
const DestinationAddress ilppacket.Address = "peer.config"

// peerProtocolFulfillment is the all-zero 32-byte preimage every ILDCP
// exchange uses; ILDCP carries no value and needs no real condition, only
// one both sides agree on in advance.
var peerProtocolFulfillment [ilppacket.ConditionLength]byte

// peerProtocolCondition is SHA-256(peerProtocolFulfillment).
var peerProtocolCondition = sha256.Sum256(peerProtocolFulfillment[:])

// requestExpiry is how far in the future an ILDCP request's expires_at is
// set; the exchange is local (a single hop to a directly configured
// parent) so a short window suffices.
const requestExpiry = 60 * time.Second

// NewRequest builds the Prepare every ILDCP request is: fixed destination,
// zero amount, the shared condition, and no application data.
func NewRequest() *ilppacket.Prepare {
	prepare, err := ilppacket.PrepareBuilder{
		Amount:             0,
		ExpiresAt:          time.Now().Add(requestExpiry),
		ExecutionCondition: peerProtocolCondition,
		Destination:        DestinationAddress,
	}.Build()
	if err != nil {
		// DestinationAddress is a constant, non-empty, valid address; this
		// can never fail.
		panic(err)
	}

	return prepare
}

// NewFulfillment returns the fulfillment every correctly formed ILDCP
// response carries.
func NewFulfillment() [ilppacket.ConditionLength]byte {
	return peerProtocolFulfillment
}

// Response is the peer configuration a parent hands back to a child:
// the address it has assigned the child, and the asset the child's
// account with the parent is denominated in.
type Response struct {
	ILPAddress ilppacket.Address
	AssetScale uint8
	AssetCode  string
}

// Encode serializes r as an ILDCP response payload: ilp_address (OER),
// asset_scale (u8), asset_code (OER UTF-8).
func (r Response) Encode() []byte {
	var buf bytes.Buffer
	ilppacket.WriteVarOctetString(&buf, []byte(r.ILPAddress))
	buf.WriteByte(r.AssetScale)
	ilppacket.WriteVarOctetString(&buf, []byte(r.AssetCode))

	return buf.Bytes()
}

// DecodeResponse parses raw as an ILDCP response payload.
func DecodeResponse(raw []byte) (*Response, error) {
	r := ilppacket.NewOerReader(raw)

	addrRaw, err := ilppacket.ReadVarOctetString(r)
	if err != nil {
		return nil, err
	}

	address, err := ilppacket.NewAddress(string(addrRaw))
	if err != nil {
		return nil, err
	}

	scale, err := ilppacket.ReadUint8(r)
	if err != nil {
		return nil, err
	}

	assetCodeRaw, err := ilppacket.ReadVarOctetString(r)
	if err != nil {
		return nil, err
	}

	return &Response{
		ILPAddress: address,
		AssetScale: scale,
		AssetCode:  string(assetCodeRaw),
	}, nil
}

// ToFulfill wraps r's encoded form in a Fulfill carrying the shared
// peer-protocol fulfillment.
func (r Response) ToFulfill() *ilppacket.Fulfill {
	fulfill, err := ilppacket.FulfillBuilder{
		Fulfillment: peerProtocolFulfillment,
		Data:        r.Encode(),
	}.Build()
	if err != nil {
		// Encode() never exceeds MaxDataLength for realistic addresses and
		// asset codes; if it ever did, that's a caller bug worth a panic.
		panic(err)
	}

	return fulfill
}
