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
	"errors"
	"strings"
	"time"
)

// Store backends.
const (
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

const defaultRedisPort = "6379"

// Config holds configuration for opening a MerkOr database.
type Config struct {
	// Backend selects the store: BackendRedis for a live server,
	// BackendBadger for a snapshot directory written by the seeder.
	// Default: "redis"
	Backend string

	// RedisAddr is the host:port of the Redis server.
	// Default: "localhost:6379"
	RedisAddr string

	// RedisPassword authenticates against the Redis server when set.
	RedisPassword string

	// RedisDB is the logical Redis database number.
	RedisDB int

	// DialTimeout bounds connecting to the Redis server.
	// Default: 5s
	DialTimeout time.Duration

	// SnapshotPath is the badger directory used by BackendBadger.
	SnapshotPath string

	// PoolSize is the number of workers decoding records concurrently.
	// Zero decodes records one after another.
	// Default: 16
	PoolSize int

	// RelationTypesPath points to a YAML relation type table. Empty uses
	// the built-in table.
	RelationTypesPath string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend sets the store backend.
func WithBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithRedisAddr sets the Redis server address.
func WithRedisAddr(addr string) ConfigOption {
	return func(c *Config) {
		c.RedisAddr = addr
	}
}

// WithRedisPassword sets the Redis password.
func WithRedisPassword(password string) ConfigOption {
	return func(c *Config) {
		c.RedisPassword = password
	}
}

// WithRedisDB sets the logical Redis database number.
func WithRedisDB(db int) ConfigOption {
	return func(c *Config) {
		c.RedisDB = db
	}
}

// WithDialTimeout sets the Redis connect timeout.
func WithDialTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.DialTimeout = timeout
	}
}

// WithSnapshot selects the badger backend reading the snapshot at path.
func WithSnapshot(path string) ConfigOption {
	return func(c *Config) {
		c.Backend = BackendBadger
		c.SnapshotPath = path
	}
}

// WithPoolSize sets the number of decoding workers.
func WithPoolSize(size int) ConfigOption {
	return func(c *Config) {
		c.PoolSize = size
	}
}

// WithRelationTypesPath sets the relation type table file.
func WithRelationTypesPath(path string) ConfigOption {
	return func(c *Config) {
		c.RelationTypesPath = path
	}
}

// DefaultConfig returns a Config for a Redis server on localhost.
func DefaultConfig() *Config {
	return &Config{
		Backend:     BackendRedis,
		RedisAddr:   "localhost:" + defaultRedisPort,
		DialTimeout: 5 * time.Second,
		PoolSize:    16,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//   cfg := NewConfig(
//       WithRedisAddr("merkor.example.org:6379"),
//       WithPoolSize(32),
//   )
//
// Example reading a snapshot:
//   cfg := NewConfig(WithSnapshot("/var/lib/merkor"))
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// Backend names are lower-cased and a Redis address without a port gets
// the default one.
func (c *Config) Normalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.RedisAddr = strings.TrimSpace(c.RedisAddr)
	if c.RedisAddr != "" && !strings.Contains(c.RedisAddr, ":") {
		c.RedisAddr = c.RedisAddr + ":" + defaultRedisPort
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Backend {
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("merkor config: RedisAddr is required")
		}
		if c.RedisDB < 0 {
			return errors.New("merkor config: RedisDB must not be negative")
		}
		if c.DialTimeout <= 0 {
			return errors.New("merkor config: DialTimeout must be positive")
		}
	case BackendBadger:
		if c.SnapshotPath == "" {
			return errors.New("merkor config: SnapshotPath is required for the badger backend")
		}
	default:
		return errors.New("merkor config: Backend must be redis or badger")
	}
	if c.PoolSize < 0 {
		return errors.New("merkor config: PoolSize must not be negative")
	}
	return nil
}
