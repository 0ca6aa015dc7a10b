// Package redis implements storage.Store over a live Redis server holding
// the MerkOr keyspace.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/poiesic/merkor/storage"
)

const (
	DefaultAddr        = "localhost:6379"
	DefaultDialTimeout = 5 * time.Second
	DefaultScanCount   = 1000
)

// Options configures the connection.
type Options struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	// ScanCount is the COUNT hint passed to SCAN when listing keys.
	ScanCount int64
	Logger    *slog.Logger
}

// Backend is a storage.Store and storage.Writer backed by go-redis.
type Backend struct {
	rdb       *goredis.Client
	addr      string
	scanCount int64
	logger    *slog.Logger
}

var (
	_ storage.Store  = (*Backend)(nil)
	_ storage.Writer = (*Backend)(nil)
)

// Open connects to Redis and checks the connection with PING.
func Open(ctx context.Context, opts Options) (*Backend, error) {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.ScanCount <= 0 {
		opts.ScanCount = DefaultScanCount
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
		MaxRetries:  -1, // failures surface to the caller unretried
	})
	b := &Backend{
		rdb:       rdb,
		addr:      opts.Addr,
		scanCount: opts.ScanCount,
		logger:    opts.Logger.With("store", "redis", "addr", opts.Addr),
	}
	if err := b.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection to %s failed: %w", opts.Addr, err)
	}
	b.logger.Debug("connected")
	return b, nil
}

// Close closes the client and its connection pool.
func (b *Backend) Close() error {
	return b.rdb.Close()
}

// Ping checks that the server answers.
func (b *Backend) Ping(ctx context.Context) error {
	return mapError(b.rdb.Ping(ctx).Err())
}

// Get returns the string value at key.
func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := b.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapError(err)
	}
	return value, true, nil
}

// HGet returns one field of the hash at key.
func (b *Backend) HGet(ctx context.Context, key, field string) (string, bool, error) {
	value, err := b.rdb.HGet(ctx, key, field).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, mapError(err)
	}
	return value, true, nil
}

// HGetAll returns every field of the hash at key.
func (b *Backend) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := b.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, mapError(err)
	}
	return fields, nil
}

// SMembers returns the members of the set at key.
func (b *Backend) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := b.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, mapError(err)
	}
	return members, nil
}

// SUnion returns the union of the sets at keys.
func (b *Backend) SUnion(ctx context.Context, keys ...string) ([]string, error) {
	if len(keys) == 0 {
		return []string{}, nil
	}
	members, err := b.rdb.SUnion(ctx, keys...).Result()
	if err != nil {
		return nil, mapError(err)
	}
	return members, nil
}

// Keys lists matching keys with SCAN. SCAN may report a key more than
// once; duplicates are dropped.
func (b *Backend) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	seen := make(map[string]struct{})
	iter := b.rdb.Scan(ctx, 0, pattern, b.scanCount).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, mapError(err)
	}
	b.logger.Debug("scanned keys", "pattern", pattern, "matches", len(keys))
	return keys, nil
}

// ZRevRange returns members of the sorted set at key from highest to
// lowest score.
func (b *Backend) ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	members, err := b.rdb.ZRevRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, mapError(err)
	}
	return members, nil
}

// ZRevRangeWithScores is ZRevRange returning scores as well.
func (b *Backend) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]storage.ScoredMember, error) {
	zs, err := b.rdb.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, mapError(err)
	}
	members := make([]storage.ScoredMember, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			member = fmt.Sprint(z.Member)
		}
		members = append(members, storage.ScoredMember{Member: member, Score: z.Score})
	}
	return members, nil
}

// ZScore returns the score of member in the sorted set at key.
func (b *Backend) ZScore(ctx context.Context, key, member string) (float64, bool, error) {
	score, err := b.rdb.ZScore(ctx, key, member).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, mapError(err)
	}
	return score, true, nil
}

// ZCard returns the number of members of the sorted set at key.
func (b *Backend) ZCard(ctx context.Context, key string) (int64, error) {
	n, err := b.rdb.ZCard(ctx, key).Result()
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

// Set stores a string value at key.
func (b *Backend) Set(ctx context.Context, key, value string) error {
	return mapError(b.rdb.Set(ctx, key, value, 0).Err())
}

// HSet sets fields of the hash at key.
func (b *Backend) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, 2*len(fields))
	for field, value := range fields {
		args = append(args, field, value)
	}
	return mapError(b.rdb.HSet(ctx, key, args...).Err())
}

// SAdd adds members to the set at key.
func (b *Backend) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	return mapError(b.rdb.SAdd(ctx, key, args...).Err())
}

// ZAdd adds scored members to the sorted set at key.
func (b *Backend) ZAdd(ctx context.Context, key string, members ...storage.ScoredMember) error {
	if len(members) == 0 {
		return nil
	}
	zs := make([]goredis.Z, len(members))
	for i, m := range members {
		zs[i] = goredis.Z{Score: m.Score, Member: m.Member}
	}
	return mapError(b.rdb.ZAdd(ctx, key, zs...).Err())
}

// mapError sorts client errors into the storage error classes. Server
// replies become ErrCommand; everything else means the store could not be
// used and becomes ErrUnavailable.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, goredis.ErrClosed) {
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, storage.ErrStorageClosed)
	}
	var replyErr goredis.Error
	if errors.As(err, &replyErr) {
		return fmt.Errorf("%w: %w", storage.ErrCommand, err)
	}
	return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
}
