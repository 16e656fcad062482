package blob

import (
	"context"
	"image"
	"sync"

	"github.com/matzehuels/lovecontract/pkg/contract"
)

// Result is the outcome of one background decode.
type Result struct {
	Key   string
	Gen   uint64
	Image image.Image
	Err   error
}

// Loader decodes blobs in the background. Every request is tagged with a
// per-key generation; starting a new request or calling Invalidate makes older
// requests for the same key stale.
//
// The apply callback runs on the decoding goroutine. Callers that mutate shared
// state must take their own lock and confirm [Loader.Current] under it before
// applying a result.
type Loader struct {
	mu   sync.Mutex
	gens map[string]uint64
	wg   sync.WaitGroup
}

// NewLoader returns an idle loader.
func NewLoader() *Loader {
	return &Loader{gens: make(map[string]uint64)}
}

// Load starts decoding b for key and calls apply with the result.
// It returns the generation assigned to the request.
func (l *Loader) Load(ctx context.Context, key string, b contract.Blob, apply func(Result)) uint64 {
	gen := l.Invalidate(key)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		img, err := Decode(ctx, b)
		apply(Result{Key: key, Gen: gen, Image: img, Err: err})
	}()
	return gen
}

// Invalidate marks all outstanding requests for key as stale and returns the
// new generation.
func (l *Loader) Invalidate(key string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gens[key]++
	return l.gens[key]
}

// Current reports whether gen is still the latest generation for key.
func (l *Loader) Current(key string, gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gens[key] == gen
}

// Wait blocks until every started decode has called its apply callback.
func (l *Loader) Wait() {
	l.wg.Wait()
}
