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


// Package storage provides the storage abstraction layer for enrichit.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic. The BadgerDB backend lives in storage/badger.
//
// # Architecture
//
//   - RecordRepository: enriched content records, indexed by ID and content hash
//   - EmbeddingRepository: one vector per record plus exact similarity search
//
// Records and vectors are stored separately. A record never carries its
// embedding on disk; callers write the vector through EmbeddingRepository.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	store, err := badger.NewMemoryStore()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
