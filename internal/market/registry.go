package market

import (
	"sort"
	"sync"

	"github.com/rickgao/ibmirror/internal/model"
)

// SentinelID is never bound to an instrument.
const SentinelID = 0

// Registry maps canonical instrument keys to subscription ids and keeps the
// instrument built for each id. Safe for concurrent use from the command
// path and the event path.
type Registry struct {
	mu sync.RWMutex

	// Canonical key → subscription id.
	ids map[string]int

	// Subscription id → canonical key.
	keys map[int]string

	// Subscription id → instrument built for it.
	contracts map[int]model.Instrument

	// Highest allocated id.
	last int
}

// NewRegistry creates an empty registry with only the sentinel reserved.
func NewRegistry() *Registry {
	return &Registry{
		ids:       make(map[string]int),
		keys:      make(map[int]string),
		contracts: make(map[int]model.Instrument),
		last:      SentinelID,
	}
}

// Resolve returns the id for key, allocating the next id above every
// allocated one when the key is new.
func (r *Registry) Resolve(key string) int {
	r.mu.RLock()
	id, ok := r.ids[key]
	r.mu.RUnlock()
	if ok {
		return id
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have allocated it between the locks.
	if id, ok := r.ids[key]; ok {
		return id
	}

	r.last++
	r.ids[key] = r.last
	r.keys[r.last] = key
	return r.last
}

// SymbolOf returns the key bound to id, or "" when id is unknown.
func (r *Registry) SymbolOf(id int) string {
	key, _ := r.Lookup(id)
	return key
}

// Lookup returns the key bound to id.
func (r *Registry) Lookup(id int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.keys[id]
	return key, ok
}

// IDOf returns the id bound to key without allocating one.
func (r *Registry) IDOf(key string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.ids[key]
	return id, ok
}

// Bind stores the instrument built for id. The latest build wins.
func (r *Registry) Bind(id int, inst model.Instrument) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.contracts[id] = inst
}

// Contract returns the instrument bound to id.
func (r *Registry) Contract(id int) (model.Instrument, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inst, ok := r.contracts[id]
	return inst, ok
}

// Contracts returns every bound instrument ordered by id.
func (r *Registry) Contracts() []model.Instrument {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int, 0, len(r.contracts))
	for id := range r.contracts {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	result := make([]model.Instrument, 0, len(ids))
	for _, id := range ids {
		result = append(result, r.contracts[id])
	}
	return result
}

// Len returns the number of allocated ids, excluding the sentinel.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}
