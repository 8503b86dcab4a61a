package pagingcache

// pendingLists holds speculative items around the confirmed remote range.
// head is ordered with the most recently added item nearest offset 0.
type pendingLists[T any] struct {
	head  []T
	tail  []T
	equal func(newItem, existing T) bool
}

func (p *pendingLists[T]) add(item T, tail bool) {
	if tail {
		p.tail = append(p.tail, item)
		return
	}
	p.head = append([]T{item}, p.head...)
}

func (p *pendingLists[T]) list(tail bool) []T {
	if tail {
		return p.tail
	}
	return p.head
}

func (p *pendingLists[T]) index(item T, tail bool) int {
	for i, existing := range p.list(tail) {
		if p.equal(item, existing) {
			return i
		}
	}
	return -1
}

// remove drops the first match and returns its former index.
func (p *pendingLists[T]) remove(item T, tail bool) (int, bool) {
	i := p.index(item, tail)
	if i < 0 {
		return -1, false
	}
	if tail {
		p.tail = append(p.tail[:i], p.tail[i+1:]...)
	} else {
		p.head = append(p.head[:i], p.head[i+1:]...)
	}
	return i, true
}

func (p *pendingLists[T]) clear() {
	p.head = nil
	p.tail = nil
}

func (p *pendingLists[T]) len() int {
	return len(p.head) + len(p.tail)
}
