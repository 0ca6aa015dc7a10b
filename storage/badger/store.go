package badger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gobwas/glob"
	"github.com/poiesic/merkor/storage"
)

// Get returns the string value at key.
func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := b.view(ctx, func(tx *badger.Txn) error {
		var err error
		value, found, err = readString(tx, makeStringKey(key))
		return err
	})
	if err != nil {
		return "", false, err
	}
	return value, found, nil
}

// HGet returns one field of the hash at key.
func (b *Backend) HGet(ctx context.Context, key, field string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := b.view(ctx, func(tx *badger.Txn) error {
		var err error
		value, found, err = readString(tx, makeMemberKey(hashPrefix, key, field))
		return err
	})
	if err != nil {
		return "", false, err
	}
	return value, found, nil
}

// HGetAll returns every field of the hash at key.
func (b *Backend) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields := make(map[string]string)
	err := b.view(ctx, func(tx *badger.Txn) error {
		return scanMembers(tx, makeMemberPrefix(hashPrefix, key), true, func(field string, item *badger.Item) error {
			return item.Value(func(val []byte) error {
				value, err := storage.UnmarshalString(val)
				if err != nil {
					return err
				}
				fields[field] = value
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// SMembers returns the members of the set at key.
func (b *Backend) SMembers(ctx context.Context, key string) ([]string, error) {
	var members []string
	err := b.view(ctx, func(tx *badger.Txn) error {
		return scanMembers(tx, makeMemberPrefix(setPrefix, key), false, func(member string, _ *badger.Item) error {
			members = append(members, member)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// SUnion returns the union of the sets at keys.
func (b *Backend) SUnion(ctx context.Context, keys ...string) ([]string, error) {
	var members []string
	seen := make(map[string]struct{})
	err := b.view(ctx, func(tx *badger.Txn) error {
		for _, key := range keys {
			err := scanMembers(tx, makeMemberPrefix(setPrefix, key), false, func(member string, _ *badger.Item) error {
				if _, dup := seen[member]; !dup {
					seen[member] = struct{}{}
					members = append(members, member)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Keys returns every logical key matching a Redis glob pattern. Only the
// type entries sharing the pattern's literal prefix are visited.
func (b *Backend) Keys(ctx context.Context, pattern string) ([]string, error) {
	g, err := compileGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %w", storage.ErrCommand, pattern, err)
	}
	prefix := []byte(keyTypePrefix + literalPrefix(pattern))

	var keys []string
	err = b.view(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := string(iter.Item().Key()[len(keyTypePrefix):])
			if g.Match(key) {
				keys = append(keys, key)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.logger.Debug("scanned keys", "pattern", pattern, "matches", len(keys))
	return keys, nil
}

// ZRevRange returns members of the sorted set at key from highest to
// lowest score between the inclusive ranks start and stop.
func (b *Backend) ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	scored, err := b.ZRevRangeWithScores(ctx, key, start, stop)
	if err != nil {
		return nil, err
	}
	members := make([]string, len(scored))
	for i, m := range scored {
		members[i] = m.Member
	}
	return members, nil
}

// ZRevRangeWithScores is ZRevRange returning scores as well. Members with
// equal scores are ordered reverse lexicographically, as Redis does.
func (b *Backend) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]storage.ScoredMember, error) {
	var members []storage.ScoredMember
	err := b.view(ctx, func(tx *badger.Txn) error {
		var err error
		members, err = readZSet(tx, key)
		return err
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(members, func(a, b storage.ScoredMember) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(b.Member, a.Member)
	})

	lo, hi, ok := rankBounds(int64(len(members)), start, stop)
	if !ok {
		return []storage.ScoredMember{}, nil
	}
	return members[lo : hi+1], nil
}

// ZScore returns the score of member in the sorted set at key.
func (b *Backend) ZScore(ctx context.Context, key, member string) (float64, bool, error) {
	var (
		score float64
		found bool
	)
	err := b.view(ctx, func(tx *badger.Txn) error {
		item, err := tx.Get(makeMemberKey(zsetPrefix, key, member))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			score, err = storage.UnmarshalScore(val)
			found = err == nil
			return err
		})
	})
	if err != nil {
		return 0, false, err
	}
	return score, found, nil
}

// ZCard returns the number of members of the sorted set at key.
func (b *Backend) ZCard(ctx context.Context, key string) (int64, error) {
	var n int64
	err := b.view(ctx, func(tx *badger.Txn) error {
		return scanMembers(tx, makeMemberPrefix(zsetPrefix, key), false, func(string, *badger.Item) error {
			n++
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func readString(tx *badger.Txn, key []byte) (string, bool, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var value string
	err = item.Value(func(val []byte) error {
		var err error
		value, err = storage.UnmarshalString(val)
		return err
	})
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func readZSet(tx *badger.Txn, key string) ([]storage.ScoredMember, error) {
	var members []storage.ScoredMember
	err := scanMembers(tx, makeMemberPrefix(zsetPrefix, key), true, func(member string, item *badger.Item) error {
		return item.Value(func(val []byte) error {
			score, err := storage.UnmarshalScore(val)
			if err != nil {
				return err
			}
			members = append(members, storage.ScoredMember{Member: member, Score: score})
			return nil
		})
	})
	return members, err
}

// scanMembers calls fn for every field or member stored under prefix.
func scanMembers(tx *badger.Txn, prefix []byte, withValues bool, fn func(member string, item *badger.Item) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = withValues
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()
		if err := fn(string(item.Key()[len(prefix):]), item); err != nil {
			return err
		}
	}
	return nil
}

// rankBounds applies Redis range semantics to a sorted set of n members:
// negative ranks count from the end and stop is clamped to the last rank.
func rankBounds(n, start, stop int64) (int64, int64, bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}

// compileGlob compiles a Redis glob. Redis treats braces and commas as
// literals and negates classes with '^'; gobwas/glob uses braces for
// alternatives and negates with '!'.
func compileGlob(pattern string) (glob.Glob, error) {
	var sb strings.Builder
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			sb.WriteByte(c)
			i++
			sb.WriteByte(pattern[i])
		case c == '[' && !inClass:
			inClass = true
			sb.WriteByte(c)
			if i+1 < len(pattern) && pattern[i+1] == '^' {
				sb.WriteByte('!')
				i++
			}
		case c == ']' && inClass:
			inClass = false
			sb.WriteByte(c)
		case (c == '{' || c == '}' || c == ',') && !inClass:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return glob.Compile(sb.String())
}

// literalPrefix returns the part of a glob before its first special
// character.
func literalPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, `*?[\`); i >= 0 {
		return pattern[:i]
	}
	return pattern
}
