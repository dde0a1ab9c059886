package reservationRepo

import "sync"

// unitLockRegistry hands out one mutex per unit key so contention stays
// isolated to the specific room, car slot or ticket tier being fought over.
type unitLockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUnitLockRegistry() *unitLockRegistry {
	return &unitLockRegistry{locks: make(map[string]*sync.Mutex)}
}

func (r *unitLockRegistry) get(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, exists := r.locks[key]
	if !exists {
		lock = &sync.Mutex{}
		r.locks[key] = lock
	}
	return lock
}

// withLock runs fn inside the unit's critical section. The section must only
// cover a single check-and-write, never a catalog call.
func (r *unitLockRegistry) withLock(key string, fn func() error) error {
	lock := r.get(key)
	lock.Lock()
	defer lock.Unlock()
	return fn()
}
