// Package ilpservice defines the uniform request-processing abstraction
// that every stage of a node's incoming and outgoing pipelines implements,
// plus the capability interfaces (Account, AccountStore, AddressStore)
// those stages are written against.
package ilpservice

import (
	"github.com/dora-gt/interledger-go/ilppacket"
)

// Account is the minimal capability set the core requires of an account
// record. Richer stages (routing, FX, balances) extend this with further
// capability interfaces rather than a deeper inheritance hierarchy.
type Account interface {
	// ID is a stable identifier: comparable, displayable, and safe to
	// serialize as-is.
	ID() string

	// Username is the account's login name, used for HTTP auth lookups.
	Username() string

	// ILPAddress is the address the node has assigned this peer.
	ILPAddress() ilppacket.Address

	// AssetCode names the asset this account transacts in.
	AssetCode() string

	// AssetScale is the number of decimal places of the asset's smallest
	// unit, 0-255.
	AssetScale() uint8
}

// RoutingRelation describes a peering's role relative to this node.
type RoutingRelation int

const (
	// RelationParent means the peer is upstream of this node.
	RelationParent RoutingRelation = iota

	// RelationPeer means the peer is a symmetric routing partner.
	RelationPeer

	// RelationChild means the peer is downstream of this node.
	RelationChild

	// RelationNonRouting means the peer does not participate in route
	// advertisement at all.
	RelationNonRouting
)

// String implements fmt.Stringer.
func (r RoutingRelation) String() string {
	switch r {
	case RelationParent:
		return "Parent"
	case RelationPeer:
		return "Peer"
	case RelationChild:
		return "Child"
	default:
		return "NonRouting"
	}
}

// CcpRoutingAccount is the capability required by routing-aware handlers
// (route computation itself, CCP, is out of scope here; only the attribute
// metrics and routing stages need is modeled).
type CcpRoutingAccount interface {
	Account

	// RoutingRelation reports this peering's role.
	RoutingRelation() RoutingRelation
}
