// Command pagingdemo pages a slow fake user repository through a paging
// cache and prints what each request costs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-paging-cache/cache"
	pagingcache "github.com/goliatone/go-paging-cache/pagingcache"
	"github.com/goliatone/go-paging-cache/pkg/di"
	"github.com/goliatone/go-paging-cache/repositoryloader"
)

// User represents a simple user entity for demonstration purposes
type User struct {
	ID    string `json:"id" bun:",pk"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// fakeUserRepository simulates a database table ordered by insertion. List
// reads the requested window from the load context.
type fakeUserRepository struct {
	latency time.Duration

	mu    sync.Mutex
	users []User
	calls int
}

func newFakeUserRepository(rows int, latency time.Duration) *fakeUserRepository {
	r := &fakeUserRepository{latency: latency}
	for i := 0; i < rows; i++ {
		r.users = append(r.users, User{
			ID:    uuid.NewString(),
			Name:  fmt.Sprintf("User %03d", i),
			Email: fmt.Sprintf("user%03d@example.com", i),
		})
	}
	return r
}

// List simulates database latency and returns the requested window
func (r *fakeUserRepository) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]User, int, error) {
	w, ok := repositoryloader.WindowFromContext(ctx)
	if !ok {
		return nil, 0, errors.New("list without a window")
	}
	offset, limit := w.Offset, w.Limit

	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	fmt.Printf("  [FAKE DB] List offset=%d limit=%d - simulating %v query...\n", offset, limit, r.latency)

	select {
	case <-time.After(r.latency):
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	out := []User{}
	for i := offset; i < offset+limit && i < len(r.users); i++ {
		out = append(out, r.users[i])
	}
	return out, len(r.users), nil
}

func (r *fakeUserRepository) insertFirst(u User) {
	r.mu.Lock()
	r.users = append([]User{u}, r.users...)
	r.mu.Unlock()
}

func (r *fakeUserRepository) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func main() {
	cfg, err := loadConfig(os.Stderr, os.Args[1:])
	if err != nil {
		log.Fatalf("pagingdemo: %v", err)
	}
	if err := run(context.Background(), os.Stdout, cfg); err != nil {
		log.Fatalf("pagingdemo: %v", err)
	}
}

func run(ctx context.Context, out io.Writer, cfg demoConfig) error {
	fmt.Fprintln(out, "🚀 Paging Cache Demo")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "📦 Step 1: Setting up DI container...")
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	reg := prometheus.NewRegistry()

	opts := di.DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	opts.Registerer = reg
	opts.Namespace = "pagingdemo"
	opts.Engine.Lookahead = cfg.Lookahead
	opts.Engine.InitialPageSize = cfg.PageSize
	opts.Engine.CacheSaveDelay = cfg.SaveDelay
	if cfg.DataDir != "" {
		badger := cache.DefaultBadgerConfig(cfg.DataDir)
		opts.Badger = &badger
	}

	container, err := di.NewContainer(opts)
	if err != nil {
		return fmt.Errorf("create container: %w", err)
	}
	defer container.Close()
	fmt.Fprintf(out, "   ✅ lookahead=%d page size=%d durable=%v\n\n", cfg.Lookahead, cfg.PageSize, cfg.DataDir != "")

	fmt.Fprintln(out, "🗄️  Step 2: Creating fake repository...")
	repo := newFakeUserRepository(cfg.Rows, cfg.Latency)
	users, err := di.NewRepositoryCache[User](container, repo, repositoryloader.Options{
		KeyArgs: []any{cfg.Tenant},
	})
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	defer users.Close()
	fmt.Fprintf(out, "   ✅ %d rows for tenant %q\n\n", cfg.Rows, cfg.Tenant)

	unsubscribe := users.ObserveLength(func(c pagingcache.LengthChange) {
		if cfg.Verbose {
			fmt.Fprintf(out, "   📏 known size is now %d\n", c.KnownSize)
		}
	})
	defer unsubscribe()

	fmt.Fprintln(out, "🔍 Step 3: Paging...")
	windows := []struct {
		label  string
		offset int
	}{
		{"first page (remote read)", 0},
		{"overlapping page (inside lookahead)", cfg.Limit / 2},
		{"deep page (coalesced read past the upper bound)", cfg.Offset},
		{"first page again (memory)", 0},
	}
	for _, w := range windows {
		if err := timedRange(ctx, out, users, w.label, w.offset, cfg.Limit); err != nil {
			return err
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "➕ Step 4: Optimistic insert, then refresh...")
	newcomer := User{ID: uuid.NewString(), Name: "Newcomer", Email: "new@example.com"}
	users.AddPending(newcomer, false)
	if err := timedRange(ctx, out, users, "head pending page", 0, 3); err != nil {
		return err
	}
	repo.insertFirst(newcomer)

	refreshed := make(chan error, 1)
	users.Refresh(pagingcache.RefreshCallbacks[User]{
		OnSuccess: func(r pagingcache.RefreshResult[User]) {
			fmt.Fprintf(out, "   🔄 refresh returned %d rows, complete=%v\n", len(r.Results), users.IsComplete())
			refreshed <- nil
		},
		OnFailure: func(err error) { refreshed <- err },
	})
	select {
	case err := <-refreshed:
		if err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	fmt.Fprintf(out, "   head pending after refresh: %d\n\n", len(users.HeadPending()))

	fmt.Fprintln(out, "📊 Summary:")
	fmt.Fprintf(out, "   repository queries: %d\n", repo.callCount())
	fmt.Fprintf(out, "   known size: %d, request upper bound: %d\n", users.KnownSize(), users.RequestUpperBound())
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value := m.GetCounter().GetValue() + m.GetGauge().GetValue()
			fmt.Fprintf(out, "   %s%s = %v\n", mf.GetName(), labels(m.GetLabel()), value)
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "🎉 Demo completed successfully!")
	return nil
}

func timedRange(ctx context.Context, out io.Writer, users *pagingcache.Cache[User], label string, offset, limit int) error {
	fmt.Fprintf(out, "📍 %s [%d, %d):\n", label, offset, offset+limit)
	start := time.Now()
	s, err := users.Range(ctx, offset, limit)
	if err != nil {
		return err
	}
	if _, err := s.Wait(ctx); err != nil {
		return fmt.Errorf("range %d/%d: %w", offset, limit, err)
	}
	var n int
	var first string
	for _, r := range s.Results() {
		n += len(r.Results)
		if first == "" && len(r.Results) > 0 {
			first = r.Results[0].Name
		}
	}
	fmt.Fprintf(out, "   %d rows in %d deliveries, first=%q (took %v)\n", n, len(s.Results()), first, time.Since(start))
	return nil
}

func labels[L interface {
	GetName() string
	GetValue() string
}](pairs []L) string {
	if len(pairs) == 0 {
		return ""
	}
	s := "{"
	for i, p := range pairs {
		if i > 0 {
			s += ","
		}
		s += p.GetName() + "=" + p.GetValue()
	}
	return s + "}"
}
