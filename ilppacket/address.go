package ilppacket

import (
	"strings"
)

// MaxAddressLength is the largest an ILP address is allowed to be, in bytes.
const MaxAddressLength = 1023

// Address is an ILP address: a dot-separated sequence of segments used as an
// opaque routing key. The core only ever needs prefix comparison over
// addresses, never segment-aware parsing.
type Address string

// NewAddress validates s as an ILP address and returns it as an Address.
func NewAddress(s string) (Address, error) {
	if len(s) == 0 {
		return "", &ParseError{Kind: InvalidAddress, Message: "address is empty"}
	}
	if len(s) > MaxAddressLength {
		return "", &ParseError{
			Kind:    InvalidAddress,
			Message: "address exceeds maximum length",
		}
	}

	return Address(s), nil
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return string(a)
}

// HasPrefix reports whether a starts with prefix, e.g. "g.alice.sub" has
// prefix "g.alice". The comparison is bytewise and does not check segment
// boundaries, so "g.alicex" also has prefix "g.alice".
func (a Address) HasPrefix(prefix Address) bool {
	return strings.HasPrefix(string(a), string(prefix))
}
