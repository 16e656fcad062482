package blob

import (
	"context"
	"image"
	"sync"
	"testing"
)

func TestLoaderDeliversResults(t *testing.T) {
	b, err := Encode(image.NewRGBA(image.Rect(0, 0, 3, 3)))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	l := NewLoader()
	var got Result
	gen := l.Load(context.Background(), "a", b, func(r Result) { got = r })
	l.Wait()

	if got.Err != nil {
		t.Fatalf("result error: %v", got.Err)
	}
	if got.Key != "a" || got.Gen != gen || got.Image == nil {
		t.Errorf("result = %+v", got)
	}
	if !l.Current("a", gen) {
		t.Error("latest request should be current")
	}
}

func TestLoaderMarksSupersededRequestsStale(t *testing.T) {
	b, _ := Encode(image.NewRGBA(image.Rect(0, 0, 3, 3)))
	l := NewLoader()

	var mu sync.Mutex
	var results []Result
	collect := func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	}

	first := l.Load(context.Background(), "b", b, collect)
	second := l.Load(context.Background(), "b", b, collect)
	l.Wait()

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if l.Current("b", first) {
		t.Error("first request should be stale after a second Load")
	}
	if !l.Current("b", second) {
		t.Error("second request should be current")
	}
}

func TestLoaderInvalidateIsPerKey(t *testing.T) {
	l := NewLoader()
	a := l.Invalidate("a")
	b := l.Invalidate("b")
	l.Invalidate("a")

	if l.Current("a", a) {
		t.Error("a should be stale after Invalidate")
	}
	if !l.Current("b", b) {
		t.Error("invalidating a must not affect b")
	}
}

func TestLoaderReportsDecodeErrors(t *testing.T) {
	l := NewLoader()
	var got Result
	l.Load(context.Background(), "a", "not a blob", func(r Result) { got = r })
	l.Wait()

	if got.Err == nil {
		t.Error("malformed blob should produce an error result, not hang")
	}
}
