package swr

import (
	"context"
	"testing"
	"time"
)

func TestNewStoreDriverSelection(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name   string
		cfg    StoreConfig
		driver Driver
	}{
		{"default is memory", StoreConfig{}, DriverMemory},
		{"memory", StoreConfig{Driver: DriverMemory}, DriverMemory},
		{"null", StoreConfig{Driver: DriverNull}, DriverNull},
		{"file", StoreConfig{Driver: DriverFile, FileDir: t.TempDir()}, DriverFile},
		{"redis", StoreConfig{Driver: DriverRedis, RedisClient: newRedisStub()}, DriverRedis},
		{"nats", StoreConfig{Driver: DriverNATS, NATSKeyValue: newNATSKVStub()}, DriverNATS},
		{"memcached", StoreConfig{Driver: DriverMemcached}, DriverMemcached},
		{"sql without dsn", StoreConfig{Driver: DriverSQL}, DriverSQL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewStore(ctx, tc.cfg)
			if store.Driver() != tc.driver {
				t.Fatalf("expected driver %q, got %q", tc.driver, store.Driver())
			}
		})
	}
}

func TestNewStoreWithOptions(t *testing.T) {
	ctx := context.Background()

	store := NewStoreWith(ctx, DriverRedis,
		WithRedisClient(newRedisStub()),
		WithPrefix("app"),
	)
	rs, ok := store.(*redisStore)
	if !ok {
		t.Fatalf("expected a redis store, got %T", store)
	}
	if rs.prefix != "app" {
		t.Fatalf("expected prefix 'app', got %q", rs.prefix)
	}

	dir := t.TempDir()
	store = NewFileStore(ctx, dir)
	fs, ok := store.(*fileStore)
	if !ok {
		t.Fatalf("expected a file store, got %T", store)
	}
	if fs.dir != dir {
		t.Fatalf("expected dir %q, got %q", dir, fs.dir)
	}
}

func TestStoreConfigDefaults(t *testing.T) {
	cfg := StoreConfig{}.withDefaults()

	if cfg.Driver != DriverMemory {
		t.Fatalf("expected memory driver default, got %q", cfg.Driver)
	}
	if cfg.Prefix != defaultStorePrefix {
		t.Fatalf("expected prefix %q, got %q", defaultStorePrefix, cfg.Prefix)
	}
	if cfg.FileDir != defaultFileDir() {
		t.Fatalf("expected default file dir, got %q", cfg.FileDir)
	}
	if cfg.MemoryCleanupInterval != defaultMemoryCleanupInterval {
		t.Fatalf("expected default cleanup interval, got %v", cfg.MemoryCleanupInterval)
	}
	if cfg.DynamoTable != "swr_entries" {
		t.Fatalf("expected default dynamo table, got %q", cfg.DynamoTable)
	}
	if cfg.DynamoRegion != "us-east-1" {
		t.Fatalf("expected default dynamo region, got %q", cfg.DynamoRegion)
	}

	cfg = StoreConfig{
		Driver:                DriverFile,
		Prefix:                "app",
		FileDir:               "/tmp/elsewhere",
		MemoryCleanupInterval: time.Minute,
	}.withDefaults()
	if cfg.Driver != DriverFile || cfg.Prefix != "app" || cfg.FileDir != "/tmp/elsewhere" || cfg.MemoryCleanupInterval != time.Minute {
		t.Fatalf("explicit values must be preserved, got %+v", cfg)
	}
}

func TestStoreOptions(t *testing.T) {
	cfg := StoreConfig{}
	for _, opt := range []StoreOption{
		WithPrefix("p"),
		WithFileDir("/d"),
		WithMemoryCleanupInterval(time.Minute),
		WithMemcachedAddresses("a:1", "b:2"),
		WithDynamoTable("tbl"),
		WithDynamoRegion("eu-west-1"),
		WithDynamoEndpoint("http://localhost:8000"),
		WithSQL("sqlite", "dsn"),
		WithSQLTable("t"),
	} {
		cfg = opt(cfg)
	}

	if cfg.Prefix != "p" || cfg.FileDir != "/d" || cfg.MemoryCleanupInterval != time.Minute {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.MemcachedAddresses) != 2 || cfg.MemcachedAddresses[0] != "a:1" {
		t.Fatalf("unexpected memcached addresses: %v", cfg.MemcachedAddresses)
	}
	if cfg.DynamoTable != "tbl" || cfg.DynamoRegion != "eu-west-1" || cfg.DynamoEndpoint != "http://localhost:8000" {
		t.Fatalf("unexpected dynamo config: %+v", cfg)
	}
	if cfg.SQLDriverName != "sqlite" || cfg.SQLDSN != "dsn" || cfg.SQLTable != "t" {
		t.Fatalf("unexpected sql config: %+v", cfg)
	}
}
