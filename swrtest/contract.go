package swrtest

import (
	"context"
	"strings"
	"testing"

	"github.com/goforj/swr"
)

// Options configures shared store contract checks.
type Options struct {
	// CaseName is used to namespace keys. Defaults to t.Name().
	CaseName string
	// NullSemantics enables relaxed expectations for the null store.
	NullSemantics bool
	// SkipCloneCheck disables the "get returns a cloned value" assertion.
	SkipCloneCheck bool
	// SkipFlush disables the flush assertion for drivers where it is
	// expensive or unavailable.
	SkipFlush bool
}

// RunStoreContract runs a backend-agnostic store contract suite: Ready,
// set/get round trip, overwrite wins, clone isolation, delete, flush.
func RunStoreContract(t *testing.T, store swr.Store, opts Options) {
	t.Helper()

	caseName := opts.CaseName
	if caseName == "" {
		caseName = t.Name()
	}

	ctx := context.Background()
	key := func(s string) string {
		return sanitize(caseName) + ":" + s
	}

	if err := store.Ready(ctx); err != nil {
		t.Fatalf("store not ready: %v", err)
	}

	// Set/Get round-trip.
	if err := store.Set(ctx, key("alpha"), []byte("value")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	body, ok, err := store.Get(ctx, key("alpha"))
	if err != nil {
		t.Fatalf("get failed: ok=%v err=%v", ok, err)
	}
	if opts.NullSemantics {
		if ok {
			t.Fatalf("expected miss for null semantics")
		}
	} else {
		if !ok || string(body) != "value" {
			t.Fatalf("unexpected get result: ok=%v body=%q err=%v", ok, string(body), err)
		}
		if !opts.SkipCloneCheck {
			body[0] = 'X'
			body2, ok2, err2 := store.Get(ctx, key("alpha"))
			if err2 != nil || !ok2 || string(body2) != "value" {
				t.Fatalf("expected stored value unchanged, got ok=%v body=%q err=%v", ok2, string(body2), err2)
			}
		}
	}

	// Last write wins.
	if err := store.Set(ctx, key("alpha"), []byte("replaced")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	body, ok, err = store.Get(ctx, key("alpha"))
	if err != nil {
		t.Fatalf("get after overwrite failed: %v", err)
	}
	if !opts.NullSemantics && (!ok || string(body) != "replaced") {
		t.Fatalf("expected overwritten value, got ok=%v body=%q", ok, string(body))
	}

	// Missing key is a miss, not an error.
	if _, ok, err := store.Get(ctx, key("missing")); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	// Delete removes the key; deleting again is not an error.
	if err := store.Delete(ctx, key("alpha")); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, err := store.Get(ctx, key("alpha")); err != nil || ok {
		t.Fatalf("expected miss after delete, got ok=%v err=%v", ok, err)
	}
	if err := store.Delete(ctx, key("alpha")); err != nil {
		t.Fatalf("repeated delete failed: %v", err)
	}

	if !opts.SkipFlush {
		if err := store.Set(ctx, key("beta"), []byte("b")); err != nil {
			t.Fatalf("set before flush failed: %v", err)
		}
		if err := store.Flush(ctx); err != nil {
			t.Fatalf("flush failed: %v", err)
		}
		if _, ok, err := store.Get(ctx, key("beta")); err != nil || ok {
			t.Fatalf("expected miss after flush, got ok=%v err=%v", ok, err)
		}
	}
}

func sanitize(name string) string {
	replacer := strings.NewReplacer("/", "_", " ", "_")
	return replacer.Replace(name)
}
