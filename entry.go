package swr

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedEntry wraps any failure to decode a stored envelope. The
// manager treats it as a cache miss, never as a fatal error.
var ErrMalformedEntry = errors.New("swr: malformed cache entry")

// Entry is the stored envelope for a cached value. Expiration marks when the
// entry becomes stale; it is fixed at write time and never adjusted for
// entries already written.
type Entry[T any] struct {
	Expiration time.Time `json:"expiration"`
	Value      T         `json:"value"`
}

// Stale reports whether the entry has reached its expiration at now.
// The boundary counts as stale: an entry written with TTL N is stale at
// exactly write-time + N.
func (e Entry[T]) Stale(now time.Time) bool {
	return !now.Before(e.Expiration)
}

// ValueCodec defines how a cached value is encoded into and decoded from the
// stored envelope. Encode must produce valid JSON so the value can be
// embedded verbatim in the envelope; wrap binary formats in a JSON string.
type ValueCodec[T any] struct {
	Encode func(T) ([]byte, error)
	Decode func([]byte) (T, error)
}

// JSONCodec is the default codec: encoding/json both ways.
func JSONCodec[T any]() ValueCodec[T] {
	return ValueCodec[T]{
		Encode: func(v T) ([]byte, error) { return json.Marshal(v) },
		Decode: func(b []byte) (T, error) {
			var out T
			err := json.Unmarshal(b, &out)
			return out, err
		},
	}
}

// envelope is the wire shape of Entry: the expiration serializes as an
// RFC 3339 timestamp and the value stays opaque until the codec decodes it.
type envelope struct {
	Expiration time.Time       `json:"expiration"`
	Value      json.RawMessage `json:"value"`
}

func encodeEntry[T any](entry Entry[T], codec ValueCodec[T]) ([]byte, error) {
	value, err := codec.Encode(entry.Value)
	if err != nil {
		return nil, fmt.Errorf("encode cache value: %w", err)
	}
	body, err := json.Marshal(envelope{
		Expiration: entry.Expiration,
		Value:      json.RawMessage(value),
	})
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return body, nil
}

func decodeEntry[T any](body []byte, codec ValueCodec[T]) (Entry[T], error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Entry[T]{}, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}
	if env.Expiration.IsZero() || len(env.Value) == 0 {
		return Entry[T]{}, fmt.Errorf("%w: missing expiration or value", ErrMalformedEntry)
	}
	value, err := codec.Decode(env.Value)
	if err != nil {
		return Entry[T]{}, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}
	return Entry[T]{Expiration: env.Expiration, Value: value}, nil
}
