package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	s := NoopStoreHooks{}
	s.OnOperation(ctx, "read", "", time.Millisecond, nil)
	s.OnRetry(ctx, "upsert_signature", 2, errors.New("timeout"))

	c := NoopCodecHooks{}
	c.OnEncode(ctx, 1024, time.Millisecond, nil)
	c.OnDecode(ctx, "image/png", 1024, time.Millisecond, nil)

	sess := NoopSessionHooks{}
	sess.OnSessionOpen(ctx)
	sess.OnSignatureSaved(ctx, "b")
	sess.OnPersistFailure(ctx, "clear_signature", "a", false)
	sess.OnSessionClose(ctx)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}
	if _, ok := Codec().(NoopCodecHooks); !ok {
		t.Error("Codec() should return NoopCodecHooks by default")
	}
	if _, ok := Session().(NoopSessionHooks); !ok {
		t.Error("Session() should return NoopSessionHooks by default")
	}

	customStore := &testStoreHooks{}
	SetStoreHooks(customStore)
	if Store() != customStore {
		t.Error("SetStoreHooks should set custom hooks")
	}

	customCodec := &testCodecHooks{}
	SetCodecHooks(customCodec)
	if Codec() != customCodec {
		t.Error("SetCodecHooks should set custom hooks")
	}

	customSession := &testSessionHooks{}
	SetSessionHooks(customSession)
	if Session() != customSession {
		t.Error("SetSessionHooks should set custom hooks")
	}

	Reset()
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Reset() should restore NoopStoreHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testStoreHooks{}
	SetStoreHooks(custom)
	SetStoreHooks(nil)
	if Store() != custom {
		t.Error("SetStoreHooks(nil) should keep the registered hooks")
	}
}

func TestCustomHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	h := &testStoreHooks{}
	SetStoreHooks(h)
	Store().OnOperation(context.Background(), "set_accepted", "", time.Second, nil)

	if h.ops != 1 || h.lastOp != "set_accepted" {
		t.Errorf("hooks got ops=%d lastOp=%q", h.ops, h.lastOp)
	}
}

type testStoreHooks struct {
	NoopStoreHooks
	ops    int
	lastOp string
}

func (h *testStoreHooks) OnOperation(_ context.Context, op, _ string, _ time.Duration, _ error) {
	h.ops++
	h.lastOp = op
}

type testCodecHooks struct{ NoopCodecHooks }

type testSessionHooks struct{ NoopSessionHooks }
