package storage

import "context"

// ScoredMember is a sorted set member together with its score.
type ScoredMember struct {
	Member string
	Score  float64
}

// Store is the read-only subset of Redis commands the query layer uses.
// Lookups of absent keys are not errors: Get, HGet and ZScore report them
// through their bool result and the collection commands return empty
// results. Implementations wrap failures in ErrUnavailable or ErrCommand
// and must be safe for concurrent use.
type Store interface {
	// Get returns the string value at key.
	Get(ctx context.Context, key string) (string, bool, error)

	// HGet returns one field of the hash at key.
	HGet(ctx context.Context, key, field string) (string, bool, error)

	// HGetAll returns every field of the hash at key.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// SMembers returns the members of the set at key, in no particular order.
	SMembers(ctx context.Context, key string) ([]string, error)

	// SUnion returns the union of the sets at keys.
	SUnion(ctx context.Context, keys ...string) ([]string, error)

	// Keys returns every key matching a Redis glob pattern. Implementations
	// iterate incrementally rather than blocking the store.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// ZRevRange returns members of the sorted set at key ranked from
	// highest to lowest score, between the inclusive ranks start and stop.
	// Negative ranks count from the end.
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// ZRevRangeWithScores is ZRevRange returning scores as well.
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)

	// ZScore returns the score of member in the sorted set at key.
	ZScore(ctx context.Context, key, member string) (float64, bool, error)

	// ZCard returns the number of members of the sorted set at key.
	ZCard(ctx context.Context, key string) (int64, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close() error
}

// Writer builds a MerkOr keyspace. Queries never write; Writer exists for
// seeding snapshots and test stores.
type Writer interface {
	// Set stores a string value at key.
	Set(ctx context.Context, key, value string) error

	// HSet sets fields of the hash at key.
	HSet(ctx context.Context, key string, fields map[string]string) error

	// SAdd adds members to the set at key.
	SAdd(ctx context.Context, key string, members ...string) error

	// ZAdd adds scored members to the sorted set at key, replacing the
	// score of members already present.
	ZAdd(ctx context.Context, key string, members ...ScoredMember) error
}
