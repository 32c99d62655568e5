package sse

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmitter(ownerID int64, id string) *Emitter {
	em := NewEmitter(ownerID, httptest.NewRecorder(), time.Hour)
	em.ID = id
	return em
}

func TestRegistrySaveAndFind(t *testing.T) {
	r := NewRegistry()

	r.Save(newTestEmitter(1, "1_100"))
	r.Save(newTestEmitter(1, "1_200"))
	r.Save(newTestEmitter(2, "2_100"))

	found := r.FindByOwnerPrefix(1)
	require.Len(t, found, 2)
	assert.Contains(t, found, "1_100")
	assert.Contains(t, found, "1_200")

	assert.Equal(t, 3, r.Len())
}

func TestRegistryKeepsBothConnectionsOfOneOwner(t *testing.T) {
	r := NewRegistry()

	// Two tabs connecting within the same millisecond must not share a key,
	// or the second Save would silently orphan the first connection.
	a := r.Save(NewEmitter(7, httptest.NewRecorder(), time.Hour))
	b := r.Save(NewEmitter(7, httptest.NewRecorder(), time.Hour))

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, r.Len())
	assert.Len(t, r.FindByOwnerPrefix(7), 2)
}

func TestRegistryPrefixDoesNotMatchLongerOwnerIDs(t *testing.T) {
	r := NewRegistry()

	r.Save(newTestEmitter(1, "1_100"))
	r.Save(newTestEmitter(12, "12_100"))

	assert.Len(t, r.FindByOwnerPrefix(1), 1)
	assert.Len(t, r.FindByOwnerPrefix(12), 1)
}

func TestRegistryFindUnknownOwnerReturnsEmpty(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.FindByOwnerPrefix(99))
}

func TestRegistryDeleteByID(t *testing.T) {
	r := NewRegistry()
	r.Save(newTestEmitter(1, "1_100"))

	r.DeleteByID("1_100")
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.FindByOwnerPrefix(1))

	// Deleting an absent id is a no-op.
	r.DeleteByID("1_100")
}

func TestRegistryCompleteAllWakesEveryEmitter(t *testing.T) {
	r := NewRegistry()

	a := r.Save(NewEmitter(1, httptest.NewRecorder(), time.Hour))
	b := r.Save(NewEmitter(2, httptest.NewRecorder(), time.Hour))

	r.CompleteAll()

	for _, em := range []*Emitter{a, b} {
		select {
		case <-em.Done():
		default:
			t.Fatalf("emitter %s still open after CompleteAll", em.ID)
		}
		assert.Equal(t, StateCompleted, em.State())
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ownerID := int64(n%8 + 1)
			em := NewEmitter(ownerID, httptest.NewRecorder(), time.Hour)
			r.Save(em)
			r.FindByOwnerPrefix(ownerID)
			r.DeleteByID(em.ID)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.Len())
}
