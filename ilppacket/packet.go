package ilppacket

import (
	"bytes"
	"fmt"
	"time"
)

// PacketType is the 1-byte type tag that leads every encoded ILP packet.
type PacketType byte

const (
	// PacketTypePrepare tags an encoded Prepare packet.
	PacketTypePrepare PacketType = 12

	// PacketTypeFulfill tags an encoded Fulfill packet.
	PacketTypeFulfill PacketType = 13

	// PacketTypeReject tags an encoded Reject packet.
	PacketTypeReject PacketType = 14
)

const (
	// ConditionLength is the fixed size, in bytes, of a Prepare's
	// execution condition and a Fulfill's fulfillment.
	ConditionLength = 32

	// MaxDataLength bounds a Prepare or Fulfill's data field.
	MaxDataLength = 32767

	// MaxRejectMessageLength bounds a Reject's message field.
	MaxRejectMessageLength = 8191
)

// Packet is implemented by Prepare, Fulfill, and Reject.
type Packet interface {
	// Type returns the packet's wire type tag.
	Type() PacketType

	// Encode serializes the packet, including its type tag and length
	// prefix, into w.
	Encode(w *bytes.Buffer) error
}

// Prepare is an ILP Prepare packet: the request half of a single
// prepare/fulfill-or-reject exchange.
type Prepare struct {
	amount              uint64
	expiresAt           time.Time
	executionCondition  [ConditionLength]byte
	destination         Address
	data                []byte
}

// Amount is the amount of this hop's asset units being forwarded.
func (p *Prepare) Amount() uint64 { return p.amount }

// SetAmount rewrites the amount. Downstream FX stages use this; it must
// never affect an already-captured OutgoingRequest.OriginalAmount.
func (p *Prepare) SetAmount(amount uint64) { p.amount = amount }

// ExpiresAt is the UTC instant after which this Prepare is no longer valid.
func (p *Prepare) ExpiresAt() time.Time { return p.expiresAt }

// SetExpiresAt rewrites the expiry.
func (p *Prepare) SetExpiresAt(t time.Time) { p.expiresAt = t }

// ExecutionCondition is the SHA-256 digest of an unknown preimage; a
// Fulfill is only valid if SHA-256(fulfillment) equals this.
func (p *Prepare) ExecutionCondition() [ConditionLength]byte {
	return p.executionCondition
}

// Destination is the address this Prepare is routed toward.
func (p *Prepare) Destination() Address { return p.destination }

// SetDestination rewrites the destination, e.g. when the Echo handler
// redirects a self-addressed echo request back to its source.
func (p *Prepare) SetDestination(a Address) { p.destination = a }

// Data is the opaque application payload.
func (p *Prepare) Data() []byte { return p.data }

// SetData rewrites the data payload.
func (p *Prepare) SetData(data []byte) { p.data = data }

// Clone returns a deep copy, used where a handler must mutate a copy of an
// incoming Prepare without affecting the caller's.
func (p *Prepare) Clone() *Prepare {
	clone := *p
	clone.data = append([]byte(nil), p.data...)
	return &clone
}

// Type implements Packet.
func (p *Prepare) Type() PacketType { return PacketTypePrepare }

// Encode implements Packet.
func (p *Prepare) Encode(w *bytes.Buffer) error {
	var body bytes.Buffer
	writeUint64(&body, p.amount)
	writeTimestamp(&body, p.expiresAt)
	body.Write(p.executionCondition[:])
	writeVarOctetString(&body, []byte(p.destination))
	writeVarOctetString(&body, p.data)

	w.WriteByte(byte(PacketTypePrepare))
	writeVarOctetString(w, body.Bytes())

	return nil
}

// decodePrepareBody decodes the content of a Prepare (after the type tag
// and outer length prefix have already been consumed).
func decodePrepareBody(r *bytes.Reader) (*Prepare, error) {
	amount, err := readUint64(r)
	if err != nil {
		return nil, err
	}

	expiresAt, err := readTimestamp(r)
	if err != nil {
		return nil, err
	}

	condition, err := readFixed(r, ConditionLength)
	if err != nil {
		return nil, err
	}

	destRaw, err := readVarOctetString(r)
	if err != nil {
		return nil, err
	}
	destination, err := NewAddress(string(destRaw))
	if err != nil {
		return nil, err
	}

	data, err := readVarOctetString(r)
	if err != nil {
		return nil, err
	}

	p := &Prepare{
		amount:      amount,
		expiresAt:   expiresAt,
		destination: destination,
		data:        data,
	}
	copy(p.executionCondition[:], condition)

	return p, nil
}

// PrepareBuilder constructs a validated Prepare.
type PrepareBuilder struct {
	Amount             uint64
	ExpiresAt          time.Time
	ExecutionCondition [ConditionLength]byte
	Destination        Address
	Data               []byte
}

// Build validates the builder's fields and produces a Prepare. Invariants
// enforced: destination non-empty, data within MaxDataLength.
func (b PrepareBuilder) Build() (*Prepare, error) {
	if b.Destination == "" {
		return nil, &ParseError{Kind: InvalidAddress, Message: "destination is empty"}
	}
	if len(b.Data) > MaxDataLength {
		return nil, &ParseError{
			Kind:    InvalidLength,
			Message: fmt.Sprintf("data length %d exceeds max %d", len(b.Data), MaxDataLength),
		}
	}

	return &Prepare{
		amount:             b.Amount,
		expiresAt:          b.ExpiresAt.UTC(),
		executionCondition: b.ExecutionCondition,
		destination:        b.Destination,
		data:               b.Data,
	}, nil
}

// Fulfill is an ILP Fulfill packet: the success half of an exchange.
type Fulfill struct {
	fulfillment [ConditionLength]byte
	data        []byte
}

// Fulfillment is the preimage that must hash (SHA-256) to the Prepare's
// execution condition. The codec does not itself verify this; that's the
// terminal receiver's and any validator service's responsibility.
func (f *Fulfill) Fulfillment() [ConditionLength]byte { return f.fulfillment }

// Data is the opaque application payload.
func (f *Fulfill) Data() []byte { return f.data }

// Type implements Packet.
func (f *Fulfill) Type() PacketType { return PacketTypeFulfill }

// Encode implements Packet.
func (f *Fulfill) Encode(w *bytes.Buffer) error {
	var body bytes.Buffer
	body.Write(f.fulfillment[:])
	writeVarOctetString(&body, f.data)

	w.WriteByte(byte(PacketTypeFulfill))
	writeVarOctetString(w, body.Bytes())

	return nil
}

func decodeFulfillBody(r *bytes.Reader) (*Fulfill, error) {
	fulfillment, err := readFixed(r, ConditionLength)
	if err != nil {
		return nil, err
	}

	data, err := readVarOctetString(r)
	if err != nil {
		return nil, err
	}

	f := &Fulfill{data: data}
	copy(f.fulfillment[:], fulfillment)

	return f, nil
}

// FulfillBuilder constructs a validated Fulfill.
type FulfillBuilder struct {
	Fulfillment [ConditionLength]byte
	Data        []byte
}

// Build validates the builder's fields and produces a Fulfill.
func (b FulfillBuilder) Build() (*Fulfill, error) {
	if len(b.Data) > MaxDataLength {
		return nil, &ParseError{
			Kind:    InvalidLength,
			Message: fmt.Sprintf("data length %d exceeds max %d", len(b.Data), MaxDataLength),
		}
	}

	return &Fulfill{fulfillment: b.Fulfillment, data: b.Data}, nil
}

// Reject is an ILP Reject packet: the typed-failure half of an exchange.
type Reject struct {
	code        ErrorCode
	triggeredBy Address
	message     string
	data        []byte
}

// Code is the 3-byte error code classifying this rejection.
func (r *Reject) Code() ErrorCode { return r.code }

// TriggeredBy is the address of the node that generated this reject. Only
// the originating node may set this to its own address; relaying nodes
// must never overwrite it.
func (r *Reject) TriggeredBy() Address { return r.triggeredBy }

// Message is a human-readable UTF-8 description of the failure.
func (r *Reject) Message() string { return r.message }

// Data is the opaque application payload.
func (r *Reject) Data() []byte { return r.data }

// Type implements Packet.
func (r *Reject) Type() PacketType { return PacketTypeReject }

// Encode implements Packet.
func (r *Reject) Encode(w *bytes.Buffer) error {
	var body bytes.Buffer
	body.Write(r.code[:])
	writeVarOctetString(&body, []byte(r.triggeredBy))
	writeVarOctetString(&body, []byte(r.message))
	writeVarOctetString(&body, r.data)

	w.WriteByte(byte(PacketTypeReject))
	writeVarOctetString(w, body.Bytes())

	return nil
}

func decodeRejectBody(r *bytes.Reader) (*Reject, error) {
	codeBytes, err := readFixed(r, 3)
	if err != nil {
		return nil, err
	}
	var code ErrorCode
	copy(code[:], codeBytes)

	triggeredByRaw, err := readVarOctetString(r)
	if err != nil {
		return nil, err
	}
	// triggered_by is allowed to be empty (e.g. not yet known); only
	// length is validated, not non-emptiness, unlike Prepare.destination.
	if len(triggeredByRaw) > MaxAddressLength {
		return nil, &ParseError{
			Kind:    InvalidAddress,
			Message: "triggered_by exceeds maximum length",
		}
	}
	triggeredBy := Address(triggeredByRaw)

	messageRaw, err := readVarOctetString(r)
	if err != nil {
		return nil, err
	}
	if len(messageRaw) > MaxRejectMessageLength {
		return nil, &ParseError{
			Kind: InvalidLength,
			Message: fmt.Sprintf(
				"reject message length %d exceeds max %d",
				len(messageRaw), MaxRejectMessageLength,
			),
		}
	}

	data, err := readVarOctetString(r)
	if err != nil {
		return nil, err
	}

	return &Reject{
		code:        code,
		triggeredBy: triggeredBy,
		message:     string(messageRaw),
		data:        data,
	}, nil
}

// RejectBuilder constructs a validated Reject.
type RejectBuilder struct {
	Code        ErrorCode
	TriggeredBy Address
	Message     string
	Data        []byte
}

// Build validates the builder's fields and produces a Reject.
func (b RejectBuilder) Build() (*Reject, error) {
	if len(b.Message) > MaxRejectMessageLength {
		return nil, &ParseError{
			Kind: InvalidLength,
			Message: fmt.Sprintf(
				"reject message length %d exceeds max %d",
				len(b.Message), MaxRejectMessageLength,
			),
		}
	}

	return &Reject{
		code:        b.Code,
		triggeredBy: b.TriggeredBy,
		message:     b.Message,
		data:        b.Data,
	}, nil
}

// Decode dispatches on the leading type tag and decodes exactly one of
// Prepare, Fulfill, or Reject from raw.
func Decode(raw []byte) (Packet, error) {
	r := bytes.NewReader(raw)

	typeByte, err := r.ReadByte()
	if err != nil {
		return nil, wrapParseError(Truncated, "empty packet", err)
	}

	contentLen, err := readVarOctetLength(r)
	if err != nil {
		return nil, err
	}
	if contentLen != r.Len() {
		return nil, &ParseError{
			Kind: InvalidLength,
			Message: fmt.Sprintf(
				"content length %d does not match remaining %d bytes",
				contentLen, r.Len(),
			),
		}
	}

	switch PacketType(typeByte) {
	case PacketTypePrepare:
		return decodePrepareBody(r)
	case PacketTypeFulfill:
		return decodeFulfillBody(r)
	case PacketTypeReject:
		return decodeRejectBody(r)
	default:
		return nil, &ParseError{
			Kind:    InvalidType,
			Message: fmt.Sprintf("unknown packet type tag %d", typeByte),
		}
	}
}

// Encode is the total-function counterpart to Decode: encoding never fails
// for a packet that was built through its Builder (or decoded successfully
// in the first place).
func Encode(p Packet) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
