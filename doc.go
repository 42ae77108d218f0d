// Package swr provides a key-addressed cache for expensive asynchronous
// fetches with stale-while-revalidate semantics. Values are persisted in a
// pluggable durable key-value store (memory, file, redis, memcached, nats,
// dynamodb, sql); each entry carries its own expiration, and an expired entry
// is served immediately while a deferred refresh runs through an idle-time
// scheduler.
package swr
