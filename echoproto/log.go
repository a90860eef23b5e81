package echoproto

import (
	"github.com/btcsuite/btclog"
)

var log = btclog.Disabled

// UseLogger sets the package-wide logger used by echoproto.
func UseLogger(logger btclog.Logger) {
	log = logger
}
