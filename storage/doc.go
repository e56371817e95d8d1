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


// Package storage provides the persistence abstraction for the embedding cache.
//
// The cache is a pair: the canonical scheme-name list and one vector per
// name, in the same order. The pair is only meaningful together, so stores
// save and load it as a single Snapshot and report any mismatch between the
// two halves as core.ErrCacheInconsistency.
//
// # Constructor Return Type Pattern
//
// Public constructors return the EmbeddingStore interface so callers can
// swap backends without code changes:
//
//	store, err := file.NewStore("/var/lib/civicconnect")  // storage.EmbeddingStore
//	store, err := badger.NewEmbeddingStore(backend)       // storage.EmbeddingStore
//
// # Backends
//
//   - storage/file: two flat files written with temp file + rename
//   - storage/badger: three keys written in one BadgerDB transaction
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
package storage
