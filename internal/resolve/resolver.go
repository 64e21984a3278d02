// Package resolve annotates records with reverse-DNS names for their
// remote addresses. Lookups are strictly best-effort: a failure or
// timeout leaves the numeric address in place and is never an error.
package resolve

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

const (
	// DefaultTimeout bounds one lookup so a dead resolver cannot stall
	// a refresh cycle.
	DefaultTimeout = 1500 * time.Millisecond

	defaultWorkers  = 8
	defaultCacheLen = 512
	defaultCacheTTL = 5 * time.Minute
)

// LookupFunc matches net.Resolver.LookupAddr.
type LookupFunc func(ctx context.Context, addr string) ([]string, error)

// Resolver performs bounded reverse-DNS lookups with a small worker
// pool and an expiring cache, so continuous mode does not re-resolve
// the same peers every cycle. Negative results are cached too.
type Resolver struct {
	// Timeout is the per-lookup deadline.
	Timeout time.Duration

	// Workers caps concurrent in-flight lookups.
	Workers int

	// Lookup is swappable for tests; defaults to the system resolver.
	Lookup LookupFunc

	cache *expirable.LRU[string, string]
}

func New() *Resolver {
	return &Resolver{
		Timeout: DefaultTimeout,
		Workers: defaultWorkers,
		Lookup:  net.DefaultResolver.LookupAddr,
		cache:   expirable.NewLRU[string, string](defaultCacheLen, nil, defaultCacheTTL),
	}
}

// Annotate fills RemoteName for every record with a remote address.
// Each distinct address is looked up once. Cancelling ctx stops the
// remaining lookups; records already annotated keep their names.
func (r *Resolver) Annotate(ctx context.Context, records []model.Record) {
	pending := make(map[string]bool)
	for _, rec := range records {
		if rec.RemoteAddr != "" && !pending[rec.RemoteAddr] {
			if _, cached := r.cache.Get(rec.RemoteAddr); !cached {
				pending[rec.RemoteAddr] = true
			}
		}
	}

	if len(pending) > 0 {
		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			sem = make(chan struct{}, r.Workers)
		)
		resolved := make(map[string]string, len(pending))

	schedule:
		for addr := range pending {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				break schedule
			}

			wg.Add(1)
			go func(addr string) {
				defer wg.Done()
				defer func() { <-sem }()

				name := r.lookupOne(ctx, addr)
				mu.Lock()
				resolved[addr] = name
				mu.Unlock()
			}(addr)
		}

		wg.Wait()
		for addr, name := range resolved {
			r.cache.Add(addr, name)
		}
	}

	for i := range records {
		if records[i].RemoteAddr == "" {
			continue
		}
		if name, ok := r.cache.Get(records[i].RemoteAddr); ok && name != "" {
			records[i].RemoteName = name
		}
	}
}

// lookupOne returns the first PTR name without its trailing dot, or ""
// when the address does not resolve in time.
func (r *Resolver) lookupOne(ctx context.Context, addr string) string {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	names, err := r.Lookup(ctx, addr)
	if err != nil || len(names) == 0 {
		return ""
	}
	name := names[0]
	if len(name) > 0 && name[len(name)-1] == '.' {
		name = name[:len(name)-1]
	}
	return name
}
