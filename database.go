// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merkor

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/merkor/core"
	"github.com/poiesic/merkor/dictionary"
	"github.com/poiesic/merkor/storage"
	"github.com/poiesic/merkor/storage/badger"
	"github.com/poiesic/merkor/storage/redis"
)

// Database gives access to the item, relation and cluster dictionaries of
// one MerkOr store.
type Database struct {
	store     storage.Store
	ownsStore bool
	pool      *ants.Pool
	types     *core.RelationTypes
	items     *dictionary.ItemDictionary
	relations *dictionary.RelationDictionary
	clusters  *dictionary.ClusterDictionary
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	config *Config
	store  storage.Store
	logger *slog.Logger
}

// WithConfig sets the configuration. Default is DefaultConfig().
func WithConfig(cfg *Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.config = cfg
	}
}

// WithStore makes the database read from store instead of opening the
// configured backend. The store stays owned by the caller.
func WithStore(store storage.Store) DatabaseOption {
	return func(o *databaseOptions) {
		o.store = store
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens the configured store, checks that it answers and
// builds the dictionaries over it.
func NewDatabase(ctx context.Context, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	cfg := options.config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	types, err := loadRelationTypes(cfg.RelationTypesPath)
	if err != nil {
		return nil, err
	}

	db := &Database{
		store:  options.store,
		types:  types,
		logger: options.logger,
	}
	if db.store == nil {
		db.store, err = openStore(ctx, cfg, options.logger)
		if err != nil {
			return nil, err
		}
		db.ownsStore = true
	}

	dictOpts := []dictionary.Option{dictionary.WithLogger(options.logger)}
	if cfg.PoolSize > 0 {
		db.pool, err = ants.NewPool(cfg.PoolSize)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating worker pool: %w", err)
		}
		dictOpts = append(dictOpts, dictionary.WithPool(db.pool))
	}

	if db.items, err = dictionary.NewItemDictionary(db.store, dictOpts...); err != nil {
		db.Close()
		return nil, err
	}
	if db.relations, err = dictionary.NewRelationDictionary(db.store, db.items, types, dictOpts...); err != nil {
		db.Close()
		return nil, err
	}
	if db.clusters, err = dictionary.NewClusterDictionary(db.store, db.items, dictOpts...); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openStore(ctx context.Context, cfg *Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case BackendBadger:
		if _, err := os.Stat(cfg.SnapshotPath); err != nil {
			return nil, fmt.Errorf("opening snapshot: %w", err)
		}
		return badger.OpenBackend(cfg.SnapshotPath, false, badger.WithLogger(logger))
	default:
		return redis.Open(ctx, redis.Options{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			DialTimeout: cfg.DialTimeout,
			Logger:      logger,
		})
	}
}

func loadRelationTypes(path string) (*core.RelationTypes, error) {
	if path == "" {
		return core.DefaultRelationTypes()
	}
	types, err := core.LoadRelationTypesFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading relation types from %s: %w", path, err)
	}
	return types, nil
}

// Close releases the worker pool and the store, unless the store was
// supplied through WithStore.
func (db *Database) Close() error {
	if db.pool != nil {
		db.pool.Release()
	}
	if !db.ownsStore {
		return nil
	}
	if err := db.store.Close(); err != nil {
		db.logger.Error("error closing store", "err", err)
		return err
	}
	return nil
}

// Items returns the item dictionary.
func (db *Database) Items() *dictionary.ItemDictionary {
	return db.items
}

// Relations returns the relation dictionary.
func (db *Database) Relations() *dictionary.RelationDictionary {
	return db.relations
}

// Clusters returns the cluster dictionary.
func (db *Database) Clusters() *dictionary.ClusterDictionary {
	return db.clusters
}

// RelationTypes returns the relation type table in use.
func (db *Database) RelationTypes() *core.RelationTypes {
	return db.types
}

// Ping checks that the store answers.
func (db *Database) Ping(ctx context.Context) error {
	return db.store.Ping(ctx)
}
