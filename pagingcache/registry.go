package pagingcache

// registry tracks in-flight loads. A slot is reserved with the load's window
// when the load is issued and given the loader's Cancelable once LoadRange
// returns; slots are released when the load resolves and all dropped by
// cancelAll.
type registry struct {
	next    uint64
	entries map[uint64]*inflightLoad
}

type inflightLoad struct {
	offset, end int
	handle      Cancelable
}

func newRegistry() *registry {
	return &registry{entries: make(map[uint64]*inflightLoad)}
}

func (r *registry) reserve(offset, limit int) uint64 {
	r.next++
	r.entries[r.next] = &inflightLoad{offset: offset, end: offset + limit}
	return r.next
}

// attach stores h in a reserved slot. It reports false when the slot is gone,
// in which case the caller owns h and should cancel it.
func (r *registry) attach(id uint64, h Cancelable) bool {
	e, ok := r.entries[id]
	if !ok {
		return false
	}
	e.handle = h
	return true
}

func (r *registry) release(id uint64) {
	delete(r.entries, id)
}

func (r *registry) len() int {
	return len(r.entries)
}

// covers reports whether an outstanding load reads any of [from, to).
func (r *registry) covers(from, to int) bool {
	for _, e := range r.entries {
		if e.offset < to && e.end > from {
			return true
		}
	}
	return false
}

// cancelAll invokes every cancel hook and clears the registry.
func (r *registry) cancelAll() int {
	n := 0
	for id, e := range r.entries {
		if e.handle != nil {
			e.handle.Cancel()
			n++
		}
		delete(r.entries, id)
	}
	return n
}
