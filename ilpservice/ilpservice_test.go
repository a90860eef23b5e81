package ilpservice

import (
	"github.com/dora-gt/interledger-go/ilppacket"
)

// testAccount is the minimal Account fixture shared by this package's
// tests.
type testAccount struct {
	id         string
	username   string
	ilpAddress ilppacket.Address
	assetCode  string
	assetScale uint8
	relation   RoutingRelation
}

func (a testAccount) ID() string                     { return a.id }
func (a testAccount) Username() string               { return a.username }
func (a testAccount) ILPAddress() ilppacket.Address  { return a.ilpAddress }
func (a testAccount) AssetCode() string              { return a.assetCode }
func (a testAccount) AssetScale() uint8              { return a.assetScale }
func (a testAccount) RoutingRelation() RoutingRelation { return a.relation }
