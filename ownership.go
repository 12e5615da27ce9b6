package libemit

import (
	"runtime"
	"sync"
	"weak"
)

// owners maps listener identities to the id of the registry that registered them. Keys
// are weak pointers so tagging never keeps a listener alive; a cleanup drops the entry
// once the listener is collected.
var owners = &ownership{
	tags:     make(map[any]uint64),
	cleanups: make(map[any]struct{}),
}

type ownership struct {
	mu   sync.RWMutex
	tags map[any]uint64

	// cleanups holds the keys that already have a cleanup attached. It outlives the tag
	// so a listener whose registration is rolled back gets a single cleanup.
	cleanups map[any]struct{}
}

func (o *ownership) forget(key any) {
	o.mu.Lock()
	delete(o.tags, key)
	delete(o.cleanups, key)
	o.mu.Unlock()
}

// tagListener sets the owner of l to id and returns the previous owner, if any.
func tagListener[V any](l *Listener[V], id uint64) (prev uint64, had bool) {
	key := weak.Make(l)

	owners.mu.Lock()
	prev, had = owners.tags[key]
	owners.tags[key] = id
	_, attached := owners.cleanups[key]
	if !attached {
		owners.cleanups[key] = struct{}{}
	}
	owners.mu.Unlock()

	if !attached {
		runtime.AddCleanup(l, owners.forget, any(key))
	}
	return prev, had
}

// restoreTag undoes a tagListener call.
func restoreTag[V any](l *Listener[V], prev uint64, had bool) {
	key := weak.Make(l)

	owners.mu.Lock()
	defer owners.mu.Unlock()

	if had {
		owners.tags[key] = prev
		return
	}
	delete(owners.tags, key)
}

// Owner returns the id of the registry that most recently registered l. Wrappers created
// with Wrap resolve to the owner of the listener they wrap.
func Owner[V any](l *Listener[V]) (id uint64, ok bool) {
	owners.mu.RLock()
	defer owners.mu.RUnlock()

	for cur := l; cur != nil; cur = cur.wraps {
		if id, ok = owners.tags[weak.Make(cur)]; ok {
			return id, true
		}
	}
	return 0, false
}
