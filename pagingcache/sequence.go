package pagingcache

// sequenceGuard stamps asynchronous work with the generation it was issued
// under. Advancing the guard invalidates every outstanding stamp.
type sequenceGuard struct {
	id uint64
}

func (g *sequenceGuard) current() uint64 {
	return g.id
}

func (g *sequenceGuard) advance() uint64 {
	g.id++
	return g.id
}

func (g *sequenceGuard) valid(stamp uint64) bool {
	return stamp == g.id
}
