package swr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t.TempDir())

	if err := store.Ready(ctx); err != nil {
		t.Fatalf("store not ready: %v", err)
	}
	if store.Driver() != DriverFile {
		t.Fatalf("expected file driver, got %q", store.Driver())
	}

	if err := store.Set(ctx, "k", []byte("value")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	body, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || string(body) != "value" {
		t.Fatalf("unexpected get result: ok=%v body=%q err=%v", ok, string(body), err)
	}

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestFileStoreCorruptRecord(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := newFileStore(dir).(*fileStore)

	path := store.path("k")
	if err := os.WriteFile(path, []byte("no magic here"), 0o644); err != nil {
		t.Fatalf("failed to plant corrupt record: %v", err)
	}

	if _, _, err := store.Get(ctx, "k"); err == nil {
		t.Fatalf("expected error for corrupt record")
	}

	// The corrupt file is removed, so the next read is a clean miss.
	if _, ok, err := store.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected clean miss after removal, got ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("corrupt record must be deleted, stat err: %v", err)
	}
}

func TestFileStoreDeleteAndFlush(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t.TempDir())

	if err := store.Delete(ctx, "absent"); err != nil {
		t.Fatalf("deleting a missing key must not fail: %v", err)
	}

	for _, k := range []string{"a", "b"} {
		if err := store.Set(ctx, k, []byte(k)); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	}
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	for _, k := range []string{"a", "b"} {
		if _, ok, err := store.Get(ctx, k); err != nil || ok {
			t.Fatalf("expected miss after flush for %q, got ok=%v err=%v", k, ok, err)
		}
	}
}

func TestFileStoreReadyErrors(t *testing.T) {
	ctx := context.Background()

	store := &fileStore{dir: filepath.Join(t.TempDir(), "nope")}
	if err := store.Ready(ctx); err == nil {
		t.Fatalf("expected error for missing directory")
	}

	file := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	store = &fileStore{dir: file}
	if err := store.Ready(ctx); err == nil {
		t.Fatalf("expected error for non-directory path")
	}
}

func TestFileStoreSetWriteFailures(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t.TempDir())

	tempErr := errors.New("tmp failed")
	createTempFile = func(string, string) (*os.File, error) { return nil, tempErr }
	defer func() { createTempFile = os.CreateTemp }()

	if err := store.Set(ctx, "k", []byte("v")); !errors.Is(err, tempErr) {
		t.Fatalf("expected temp file error, got %v", err)
	}
	createTempFile = os.CreateTemp

	renameErr := errors.New("rename failed")
	renameFile = func(string, string) error { return renameErr }
	defer func() { renameFile = os.Rename }()

	if err := store.Set(ctx, "k", []byte("v")); !errors.Is(err, renameErr) {
		t.Fatalf("expected rename error, got %v", err)
	}
}
