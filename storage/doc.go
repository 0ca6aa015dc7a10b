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


// Package storage defines the read-only view of the MerkOr store.
//
// The lexical resource lives in a Redis-style key/value store: items are
// hashes, lemma indexes and cluster memberships are sets, and relation
// rankings and clusters are sorted sets. This package names every key the
// query layer touches and declares the Store interface the dictionaries
// read through.
//
// # Backends
//
// Two implementations are provided:
//
//   - storage/redis: a live Redis server, via go-redis
//   - storage/badger: an embedded snapshot of the same keyspace, used for
//     offline copies and tests
//
// Open either and hand it to the dictionaries:
//
//	store, err := redis.Open(ctx, redis.Options{Addr: "localhost:6379"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// # Key scheme
//
// Keys are built and parsed only through the helpers in keys.go. Key
// decoding is strict: a key whose trailing id does not parse is reported
// with ErrMalformedKey, never guessed at.
//
// # Thread Safety
//
// Store implementations must be safe for concurrent use. Every method
// takes a context.Context and honors its cancellation; the query layer
// sets no timeouts of its own.
package storage
