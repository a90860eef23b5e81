package ilpservice

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryAddressStoreGetSet(t *testing.T) {
	store := NewMemoryAddressStore(mustAddress(t, "g.node"))
	require.Equal(t, mustAddress(t, "g.node"), store.Get())

	store.Set(mustAddress(t, "g.node.child"))
	require.Equal(t, mustAddress(t, "g.node.child"), store.Get())
}

func TestMemoryAddressStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryAddressStore(mustAddress(t, "g.node"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Set(mustAddress(t, "g.node"))
		}()
		go func() {
			defer wg.Done()
			_ = store.Get()
		}()
	}
	wg.Wait()
}

func TestErrAccountNotFoundMessage(t *testing.T) {
	err := &ErrAccountNotFound{Key: "alice"}
	require.Contains(t, err.Error(), "alice")
}
