package ilpservice

import (
	"github.com/btcsuite/btclog"
)

// log is the package-scoped logger for ilpservice; no code in this package
// currently writes to it. Callers that want this package's output folded into their
// own logging backend call UseLogger; until then log discards everything.
var log = btclog.Disabled

// UseLogger sets the package-wide logger used by ilpservice.
func UseLogger(logger btclog.Logger) {
	log = logger
}
