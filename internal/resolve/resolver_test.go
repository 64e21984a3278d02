package resolve

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

func records(addrs ...string) []model.Record {
	out := make([]model.Record, len(addrs))
	for i, a := range addrs {
		out[i] = model.Record{Connection: model.Connection{RemoteAddr: a, RemotePort: 443}}
	}
	return out
}

func TestAnnotateResolves(t *testing.T) {
	r := New()
	r.Lookup = func(_ context.Context, addr string) ([]string, error) {
		if addr == "93.184.216.34" {
			return []string{"example.com."}, nil
		}
		return nil, errors.New("nxdomain")
	}

	recs := records("93.184.216.34", "10.0.0.1", "")
	r.Annotate(context.Background(), recs)

	assert.Equal(t, "example.com", recs[0].RemoteName, "trailing dot trimmed")
	assert.Empty(t, recs[1].RemoteName, "failed lookup falls back to numeric")
	assert.Empty(t, recs[2].RemoteName, "no remote, no lookup")
}

func TestAnnotateLooksUpEachAddressOnce(t *testing.T) {
	var calls atomic.Int32
	r := New()
	r.Lookup = func(_ context.Context, addr string) ([]string, error) {
		calls.Add(1)
		return []string{"peer.local."}, nil
	}

	recs := records("10.0.0.1", "10.0.0.1", "10.0.0.1")
	r.Annotate(context.Background(), recs)
	require.EqualValues(t, 1, calls.Load())
	for _, rec := range recs {
		assert.Equal(t, "peer.local", rec.RemoteName)
	}

	// Second cycle hits the cache, including for negative results.
	r.Annotate(context.Background(), records("10.0.0.1"))
	assert.EqualValues(t, 1, calls.Load())
}

func TestAnnotateCachesNegativeResults(t *testing.T) {
	var calls atomic.Int32
	r := New()
	r.Lookup = func(_ context.Context, addr string) ([]string, error) {
		calls.Add(1)
		return nil, errors.New("timeout")
	}

	r.Annotate(context.Background(), records("10.9.9.9"))
	r.Annotate(context.Background(), records("10.9.9.9"))
	assert.EqualValues(t, 1, calls.Load())
}

func TestAnnotateHonorsCancellation(t *testing.T) {
	r := New()
	r.Workers = 1
	r.Lookup = func(ctx context.Context, addr string) ([]string, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		r.Annotate(ctx, records("10.0.0.1", "10.0.0.2", "10.0.0.3"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Annotate did not return after cancellation")
	}
}

func TestLookupOneTimeout(t *testing.T) {
	r := New()
	r.Timeout = 10 * time.Millisecond
	r.Lookup = func(ctx context.Context, addr string) ([]string, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	start := time.Now()
	name := r.lookupOne(context.Background(), "10.0.0.1")
	assert.Empty(t, name)
	assert.Less(t, time.Since(start), time.Second, "lookup must be bounded by the timeout")
}
