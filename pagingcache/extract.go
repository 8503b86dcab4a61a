package pagingcache

// extraction is the result of reading [offset, offset+limit) out of the store.
// remainingOffset is absolute; remainingLimit counts items not yet confirmed.
type extraction[T any] struct {
	available       []T
	remainingOffset int
	remainingLimit  int
}

// extractRange walks head pending, cache and tail pending in order. Cache
// items only count as resolved once the remote source has answered; tail
// items are always provisional.
func extractRange[T any](head, cache, tail []T, remoteLoaded bool, offset, limit int) extraction[T] {
	var out []T

	partOffset := takeFrom(head, offset, limit, &out)
	resolved := len(out)

	partOffset = takeFrom(cache, partOffset, limit-len(out), &out)
	if remoteLoaded {
		resolved = len(out)
	}

	takeFrom(tail, partOffset, limit-len(out), &out)

	return extraction[T]{
		available:       out,
		remainingOffset: offset + resolved,
		remainingLimit:  limit - resolved,
	}
}

// takeFrom appends up to limit items of src starting at offset and returns
// the offset translated into the next partition.
func takeFrom[T any](src []T, offset, limit int, dest *[]T) int {
	if offset >= 0 && limit > 0 && offset < len(src) {
		end := min(offset+limit, len(src))
		*dest = append(*dest, src[offset:end]...)
	}
	return max(0, offset-len(src))
}

// rangeOverlap reports whether [aOffset, aOffset+aLimit) and
// [bOffset, bOffset+bLimit) share at least one index.
func rangeOverlap(aOffset, aLimit, bOffset, bLimit int) bool {
	if aOffset > bOffset {
		aOffset, aLimit, bOffset, bLimit = bOffset, bLimit, aOffset, aLimit
	}
	return aOffset+aLimit > bOffset
}

// splice writes items into dst at start, growing dst as needed.
// start must not exceed len(dst).
func splice[T any](dst []T, start int, items []T) []T {
	if end := start + len(items); end > len(dst) {
		dst = append(dst, make([]T, end-len(dst))...)
	}
	copy(dst[start:], items)
	return dst
}
