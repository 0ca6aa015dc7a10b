package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/merkor/storage"
)

// Set stores a string value at key.
func (b *Backend) Set(ctx context.Context, key, value string) error {
	return b.update(ctx, func(tx *badger.Txn) error {
		if err := claimType(tx, key, typeString); err != nil {
			return err
		}
		return tx.Set(makeStringKey(key), storage.MarshalString(value))
	})
}

// HSet sets fields of the hash at key.
func (b *Backend) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return b.update(ctx, func(tx *badger.Txn) error {
		if err := claimType(tx, key, typeHash); err != nil {
			return err
		}
		for field, value := range fields {
			if err := tx.Set(makeMemberKey(hashPrefix, key, field), storage.MarshalString(value)); err != nil {
				return err
			}
		}
		return nil
	})
}

// SAdd adds members to the set at key.
func (b *Backend) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return b.update(ctx, func(tx *badger.Txn) error {
		if err := claimType(tx, key, typeSet); err != nil {
			return err
		}
		for _, member := range members {
			if err := tx.Set(makeMemberKey(setPrefix, key, member), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// ZAdd adds scored members to the sorted set at key.
func (b *Backend) ZAdd(ctx context.Context, key string, members ...storage.ScoredMember) error {
	if len(members) == 0 {
		return nil
	}
	return b.update(ctx, func(tx *badger.Txn) error {
		if err := claimType(tx, key, typeZSet); err != nil {
			return err
		}
		for _, m := range members {
			if err := tx.Set(makeMemberKey(zsetPrefix, key, m.Member), storage.MarshalScore(m.Score)); err != nil {
				return err
			}
		}
		return nil
	})
}

// claimType records the type of a new key, or checks it against the type
// already recorded.
func claimType(tx *badger.Txn, key, kind string) error {
	existing, found, err := readString(tx, makeTypeKey(key))
	if err != nil {
		return err
	}
	if found {
		if existing != kind {
			return fmt.Errorf("%w: WRONGTYPE key %q holds a %s, not a %s", storage.ErrCommand, key, existing, kind)
		}
		return nil
	}
	return tx.Set(makeTypeKey(key), storage.MarshalString(kind))
}
