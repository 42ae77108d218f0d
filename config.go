package swr

import (
	"os"
	"path/filepath"
	"time"
)

const (
	defaultStorePrefix           = "swr"
	defaultRefreshTimeout        = 2 * time.Second
	defaultMemoryCleanupInterval = 10 * time.Minute
)

func defaultFileDir() string {
	return filepath.Join(os.TempDir(), "swr-store")
}

// StoreConfig controls how a Store is constructed.
type StoreConfig struct {
	Driver Driver

	// Prefix namespaces keys on shared backends (e.g. redis, sql).
	Prefix string

	// FileDir controls where the file driver persists entries.
	FileDir string

	// MemoryCleanupInterval controls the memory driver's sweep cadence.
	MemoryCleanupInterval time.Duration

	// RedisClient is required when DriverRedis is used.
	RedisClient RedisClient

	// NATSKeyValue is required when DriverNATS is used.
	NATSKeyValue NATSKeyValue

	// MemcachedAddresses are required when DriverMemcached is used.
	MemcachedAddresses []string

	// DynamoClient is used when DriverDynamo is selected; when nil a client
	// is built from DynamoRegion/DynamoEndpoint.
	DynamoClient   DynamoAPI
	DynamoTable    string
	DynamoRegion   string
	DynamoEndpoint string

	// SQLDriverName and SQLDSN select the database/sql backend
	// (sqlite, mysql, pgx/postgres dialects are supported).
	SQLDriverName string
	SQLDSN        string
	SQLTable      string
}

func (c StoreConfig) withDefaults() StoreConfig {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.Prefix == "" {
		c.Prefix = defaultStorePrefix
	}
	if c.FileDir == "" {
		c.FileDir = defaultFileDir()
	}
	if c.MemoryCleanupInterval <= 0 {
		c.MemoryCleanupInterval = defaultMemoryCleanupInterval
	}
	if c.DynamoTable == "" {
		c.DynamoTable = "swr_entries"
	}
	if c.DynamoRegion == "" {
		c.DynamoRegion = "us-east-1"
	}
	return c
}
