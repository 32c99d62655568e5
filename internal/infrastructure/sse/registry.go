package sse

import (
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
)

const shardCount = 16

// Registry is the process-wide table of live emitters, sharded by emitter
// id so connect, disconnect and push never contend on one lock. It is the
// only concurrently mutated shared state in the fan-out core.
type Registry struct {
	shards [shardCount]registryShard
}

type registryShard struct {
	mu       sync.RWMutex
	emitters map[string]*Emitter
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].emitters = make(map[string]*Emitter)
	}
	return r
}

func (r *Registry) shardFor(id string) *registryShard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &r.shards[h.Sum32()%shardCount]
}

// Save registers the emitter under its id and returns it.
func (r *Registry) Save(em *Emitter) *Emitter {
	shard := r.shardFor(em.ID)
	shard.mu.Lock()
	shard.emitters[em.ID] = em
	shard.mu.Unlock()
	return em
}

// FindByOwnerPrefix returns every live emitter whose id starts with
// "<ownerID>_" — all of one user's open tabs.
func (r *Registry) FindByOwnerPrefix(ownerID int64) map[string]*Emitter {
	prefix := strconv.FormatInt(ownerID, 10) + "_"
	found := make(map[string]*Emitter)

	for i := range r.shards {
		shard := &r.shards[i]
		shard.mu.RLock()
		for id, em := range shard.emitters {
			if strings.HasPrefix(id, prefix) {
				found[id] = em
			}
		}
		shard.mu.RUnlock()
	}

	return found
}

// DeleteByID removes the entry; deleting an absent id is a no-op.
func (r *Registry) DeleteByID(id string) {
	shard := r.shardFor(id)
	shard.mu.Lock()
	delete(shard.emitters, id)
	shard.mu.Unlock()
}

// CompleteAll moves every live emitter to its terminal state. The server
// calls it when shutdown begins so blocked stream handlers observe Done and
// return before the drain deadline.
func (r *Registry) CompleteAll() {
	for i := range r.shards {
		shard := &r.shards[i]
		shard.mu.RLock()
		emitters := make([]*Emitter, 0, len(shard.emitters))
		for _, em := range shard.emitters {
			emitters = append(emitters, em)
		}
		shard.mu.RUnlock()

		// Complete outside the shard lock: the woken handler disconnects,
		// which re-enters the registry to delete its entry.
		for _, em := range emitters {
			em.Complete()
		}
	}
}

// Len reports the number of live emitters across all shards.
func (r *Registry) Len() int {
	total := 0
	for i := range r.shards {
		shard := &r.shards[i]
		shard.mu.RLock()
		total += len(shard.emitters)
		shard.mu.RUnlock()
	}
	return total
}
