package store

import "time"

// Store is the durable keyed store the engine keeps all authoritative state
// in. Every operation is atomic per key; no multi-key transactions are
// assumed, so compound mutations above this layer must stay idempotent.
type Store interface {
	// Get returns nil, nil when the key does not exist.
	Get(key string) ([]byte, error)
	// Set stores value under key; ttl <= 0 means no expiry.
	Set(key string, value []byte, ttl time.Duration) error
	Delete(keys ...string) error
	Exists(key string) (bool, error)
	Expire(key string, ttl time.Duration) error

	SetAdd(key string, members ...string) error
	SetRemove(key string, members ...string) error
	SetMembers(key string) ([]string, error)
	SetIsMember(key string, member string) (bool, error)
	SetCard(key string) (int64, error)

	ListPush(key string, values ...[]byte) error
	ListLen(key string) (int64, error)
	// ListRange and ListIndex follow Redis semantics: inclusive bounds,
	// negative indices count from the end (-1 is the last element).
	ListRange(key string, start, stop int64) ([][]byte, error)
	// ListIndex returns nil, nil when the index is out of range.
	ListIndex(key string, index int64) ([]byte, error)

	HashSet(key, field string, value []byte) error
	HashGetAll(key string) (map[string][]byte, error)

	Ping() error
	Close() error
}
