package ilpservice

import (
	"fmt"
	"sync"

	"github.com/dora-gt/interledger-go/ilppacket"
)

// AccountStore looks accounts up by the identifiers a transport layer has
// available: the stable account ID and, for HTTP basic-auth style
// transports, the username.
type AccountStore[A Account] interface {
	// Get returns the account with the given ID.
	Get(id string) (A, error)

	// GetByUsername returns the account with the given username.
	GetByUsername(username string) (A, error)
}

// AddressStore holds the node's own ILP address. The address may be fixed
// at startup or learned later from a parent via ILDCP, so reads and writes
// are synchronized independently of any particular request.
type AddressStore interface {
	// Get returns the node's current address.
	Get() ilppacket.Address

	// Set updates the node's address.
	Set(address ilppacket.Address)
}

// MemoryAddressStore is an AddressStore backed by a sync.RWMutex-guarded
// field. Reads take the read lock only, so a burst of concurrent request
// dispatch never blocks on a slow writer doing anything but hold the lock
// for the assignment itself.
type MemoryAddressStore struct {
	mu      sync.RWMutex
	address ilppacket.Address
}

// NewMemoryAddressStore builds a MemoryAddressStore seeded with address,
// which may be empty if the node has not yet learned its address.
func NewMemoryAddressStore(address ilppacket.Address) *MemoryAddressStore {
	return &MemoryAddressStore{address: address}
}

// Get implements AddressStore.
func (s *MemoryAddressStore) Get() ilppacket.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.address
}

// Set implements AddressStore.
func (s *MemoryAddressStore) Set(address ilppacket.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.address = address
}

// ErrAccountNotFound is returned by AccountStore implementations when no
// account matches the lookup key.
type ErrAccountNotFound struct {
	Key string
}

// Error implements the error interface.
func (e *ErrAccountNotFound) Error() string {
	return fmt.Sprintf("account not found: %s", e.Key)
}
