// Package pagingcache pages an ordered, indexable remote dataset into memory.
//
// A Cache answers range requests from three partitions: head pending items
// assumed to precede offset 0, items confirmed by the remote source, and tail
// pending items assumed to follow them. Requests that cannot be served yet are
// queued and delivered progressively as pages arrive, so OnSuccess may fire
// more than once per request before OnDone.
//
// Remote reads are widened by a lookahead window and coalesced: a request
// triggers a load only when its window plus lookahead passes the furthest
// window already requested. Cancel and Refresh advance a sequence number that
// invalidates every load issued before them; late responses are dropped.
//
// When the loader names its dataset and a cache.Store is configured, the first
// full page is persisted and used to seed a cold cache on the next start while
// the authoritative read is still outstanding.
//
// Basic usage:
//
//	c, err := pagingcache.New[Row](pagingcache.Async[Row](loader), pagingcache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	stream, err := c.Range(ctx, 0, 50)
//	if err != nil {
//		return err
//	}
//	for page, ok := stream.Next(ctx); ok; page, ok = stream.Next(ctx) {
//		render(page.Offset, page.Results)
//	}
//	return stream.Err()
package pagingcache
