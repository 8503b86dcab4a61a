package pagingcache

// blockedRequest is the unresolved part of a range request. offset is
// absolute, counting head pending items.
type blockedRequest[T any] struct {
	offset int
	limit  int
	cb     RangeCallbacks[T]
}

// blockedQueue keeps unmet requests in arrival order.
type blockedQueue[T any] struct {
	entries []*blockedRequest[T]
}

func (q *blockedQueue[T]) push(r *blockedRequest[T]) {
	q.entries = append(q.entries, r)
}

func (q *blockedQueue[T]) len() int {
	return len(q.entries)
}

// drain detaches and returns every entry.
func (q *blockedQueue[T]) drain() []*blockedRequest[T] {
	entries := q.entries
	q.entries = nil
	return entries
}

// sweep visits entries in order and drops those for which visit returns true.
func (q *blockedQueue[T]) sweep(visit func(r *blockedRequest[T]) (remove bool)) {
	kept := q.entries[:0]
	for _, r := range q.entries {
		if !visit(r) {
			kept = append(kept, r)
		}
	}
	for i := len(kept); i < len(q.entries); i++ {
		q.entries[i] = nil
	}
	q.entries = kept
}
