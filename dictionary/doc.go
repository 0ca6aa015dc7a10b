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


// Package dictionary answers lexical queries over the MerkOr store.
//
// Three dictionaries share one store:
//
//   - ItemDictionary resolves lexical items by lemma, wordclass, lemma
//     glob or id.
//   - RelationDictionary reassembles scored relations between items, per
//     item, per lemma, between lemmas and per relation type.
//   - ClusterDictionary resolves clusters (domains) by name pattern or id,
//     the clusters an item belongs to and the ranked members of a cluster.
//
// # Contracts
//
// Arguments are checked before the store is touched; violations wrap
// core.ErrInvalidArgument. Single entity lookups return nil without an
// error when nothing is found, list queries return an empty slice. Stored
// records that cannot be decoded are logged and skipped, so a partially
// populated store yields fewer results rather than errors. Store failures
// are returned as they come from the storage package.
//
// # Concurrency
//
// Dictionaries hold no mutable state and are safe for concurrent use.
// Given a worker pool (WithPool), per-key record decoding fans out over
// the pool while results keep their store order.
package dictionary
