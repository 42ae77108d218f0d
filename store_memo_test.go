package swr

import (
	"context"
	"errors"
	"testing"
)

func TestMemoStoreMemoizesReads(t *testing.T) {
	ctx := context.Background()
	base := newCountingStore()
	base.seed("k", []byte("value"))
	store := NewMemoStore(base)

	if store.Driver() != base.Driver() {
		t.Fatalf("memo store must report the wrapped driver, got %q", store.Driver())
	}
	if err := store.Ready(ctx); err != nil {
		t.Fatalf("store not ready: %v", err)
	}

	for i := 0; i < 3; i++ {
		body, ok, err := store.Get(ctx, "k")
		if err != nil || !ok || string(body) != "value" {
			t.Fatalf("get %d: ok=%v body=%q err=%v", i, ok, string(body), err)
		}
	}
	if n := base.calls["get"]; n != 1 {
		t.Fatalf("expected one backend read, got %d", n)
	}
}

func TestMemoStoreMemoizesMisses(t *testing.T) {
	ctx := context.Background()
	base := newCountingStore()
	store := NewMemoStore(base)

	for i := 0; i < 3; i++ {
		if _, ok, err := store.Get(ctx, "absent"); err != nil || ok {
			t.Fatalf("get %d: expected miss, got ok=%v err=%v", i, ok, err)
		}
	}
	if n := base.calls["get"]; n != 1 {
		t.Fatalf("expected one backend read, got %d", n)
	}
}

func TestMemoStoreWriteInvalidates(t *testing.T) {
	ctx := context.Background()
	base := newCountingStore()
	base.seed("k", []byte("v1"))
	store := NewMemoStore(base)

	if _, _, err := store.Get(ctx, "k"); err != nil {
		t.Fatalf("warmup get failed: %v", err)
	}
	if err := store.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	body, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || string(body) != "v2" {
		t.Fatalf("expected invalidated memo, got ok=%v body=%q err=%v", ok, string(body), err)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, err := store.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected miss after delete, got ok=%v err=%v", ok, err)
	}
}

func TestMemoStoreFlushClears(t *testing.T) {
	ctx := context.Background()
	base := newCountingStore()
	base.seed("k", []byte("v"))
	store := NewMemoStore(base)

	if _, _, err := store.Get(ctx, "k"); err != nil {
		t.Fatalf("warmup get failed: %v", err)
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if _, ok, err := store.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected miss after flush, got ok=%v err=%v", ok, err)
	}
}

func TestMemoStoreDoesNotMemoizeErrors(t *testing.T) {
	ctx := context.Background()
	base := newCountingStore()
	backendErr := errors.New("backend down")
	base.failWith("get", backendErr)
	store := NewMemoStore(base)

	if _, _, err := store.Get(ctx, "k"); !errors.Is(err, backendErr) {
		t.Fatalf("expected backend error, got %v", err)
	}

	// Once the backend recovers the read goes through.
	base.failWith("get", nil)
	base.seed("k", []byte("v"))
	body, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || string(body) != "v" {
		t.Fatalf("expected read after recovery, got ok=%v body=%q err=%v", ok, string(body), err)
	}
}
