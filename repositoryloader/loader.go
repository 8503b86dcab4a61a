package repositoryloader

import (
	"context"
	"fmt"
	"sync/atomic"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-paging-cache/cache"
	pagingcache "github.com/goliatone/go-paging-cache/pagingcache"
)

// Lister is the read side of a repository.Repository used for paging.
type Lister[T any] interface {
	List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error)
}

var _ pagingcache.BlockingLoader[any] = (*Loader[any])(nil)

// Options configure a Loader.
type Options struct {
	// Dataset names the snapshot. Empty disables persistence.
	Dataset string

	// KeyArgs scope the snapshot name, for example by tenant.
	KeyArgs []any

	// KeySerializer builds the snapshot name. Defaults to cache.NewDefaultKeySerializer.
	KeySerializer cache.KeySerializer

	// Criteria are applied to every page before offset and limit, typically
	// an ORDER BY that keeps paging stable.
	Criteria []repository.SelectCriteria

	// Paginate builds the window criteria. Defaults to Page.
	Paginate func(offset, limit int) repository.SelectCriteria
}

// Loader pages a repository with offset and limit criteria.
type Loader[T any] struct {
	lister   Lister[T]
	name     string
	criteria []repository.SelectCriteria
	paginate func(offset, limit int) repository.SelectCriteria
	total    atomic.Int64
}

// New creates a Loader over lister.
func New[T any](lister Lister[T], opts Options) *Loader[T] {
	l := &Loader[T]{
		lister:   lister,
		criteria: append([]repository.SelectCriteria(nil), opts.Criteria...),
		paginate: opts.Paginate,
	}
	if l.paginate == nil {
		l.paginate = Page
	}
	l.total.Store(-1)

	if opts.Dataset != "" {
		serializer := opts.KeySerializer
		if serializer == nil {
			serializer = cache.NewDefaultKeySerializer()
		}
		l.name = serializer.SerializeKey(opts.Dataset, opts.KeyArgs...)
	}
	return l
}

// NewRemote wraps New with pagingcache.Async so the result can back a Cache.
func NewRemote[T any](lister Lister[T], opts Options) *pagingcache.AsyncLoader[T] {
	return pagingcache.Async[T](New(lister, opts))
}

// CacheName returns the serialized snapshot name.
func (l *Loader[T]) CacheName() string {
	return l.name
}

// Window is the page a Load call lists.
type Window struct {
	Offset int
	Limit  int
}

type windowKey struct{}

// WindowFromContext returns the window of the Load call that handed ctx to
// List. Listers that never run the criteria against a query, such as fakes,
// serve the page from it.
func WindowFromContext(ctx context.Context) (Window, bool) {
	w, ok := ctx.Value(windowKey{}).(Window)
	return w, ok
}

// Load lists [offset, offset+limit).
func (l *Loader[T]) Load(ctx context.Context, offset, limit int) (pagingcache.LoadResponse[T], error) {
	ctx = context.WithValue(ctx, windowKey{}, Window{Offset: offset, Limit: limit})
	criteria := append(append([]repository.SelectCriteria(nil), l.criteria...), l.paginate(offset, limit))

	records, total, err := l.lister.List(ctx, criteria...)
	if err != nil {
		return pagingcache.LoadResponse[T]{}, fmt.Errorf("list offset=%d limit=%d: %w", offset, limit, err)
	}
	l.total.Store(int64(total))

	return pagingcache.LoadResponse[T]{Items: records}, nil
}

// Total returns the row count reported by the last page, or -1 before any
// page was loaded.
func (l *Loader[T]) Total() int {
	return int(l.total.Load())
}

// Page selects [offset, offset+limit).
func Page(offset, limit int) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Offset(offset).Limit(limit)
	}
}
