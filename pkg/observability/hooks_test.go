package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Conversion hooks
	p := NoopConversionHooks{}
	p.OnDrawStart(ctx, "clos")
	p.OnDrawComplete(ctx, "clos", Stats{Nodes: 4, Links: 4}, time.Second, nil)
	p.OnExtractStart(ctx, "Page-1")
	p.OnExtractComplete(ctx, "Page-1", Stats{}, time.Second, errors.New("bad"))

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "draw")
	c.OnCacheMiss(ctx, "extract")
	c.OnCacheSet(ctx, "draw", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/api/v1/draw")
	h.OnResponse(ctx, "POST", "/api/v1/draw", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Conversion().(NoopConversionHooks); !ok {
		t.Error("Conversion() should return NoopConversionHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	conv := &countingHooks{}
	SetConversionHooks(conv)
	if Conversion() != conv {
		t.Error("SetConversionHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Conversion().(NoopConversionHooks); !ok {
		t.Error("Reset() should restore NoopConversionHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("Reset() should restore NoopHTTPHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &countingHooks{}
	SetConversionHooks(custom)
	SetConversionHooks(nil)
	if Conversion() != custom {
		t.Error("SetConversionHooks(nil) should be ignored")
	}
}

func TestRegisteredHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	h := &countingHooks{}
	SetConversionHooks(h)
	ctx := context.Background()
	Conversion().OnDrawStart(ctx, "lab")
	Conversion().OnDrawComplete(ctx, "lab", Stats{Nodes: 3, Links: 2, Warnings: 1}, time.Millisecond, nil)

	if h.started != 1 || h.completed != 1 {
		t.Errorf("started=%d completed=%d, want 1 and 1", h.started, h.completed)
	}
	if h.last != (Stats{Nodes: 3, Links: 2, Warnings: 1}) {
		t.Errorf("stats = %+v", h.last)
	}
}

type countingHooks struct {
	NoopConversionHooks
	started, completed int
	last               Stats
}

func (c *countingHooks) OnDrawStart(context.Context, string) { c.started++ }

func (c *countingHooks) OnDrawComplete(_ context.Context, _ string, s Stats, _ time.Duration, _ error) {
	c.completed++
	c.last = s
}

type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
