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


package storage

import "errors"

// Lookup and uniqueness errors returned by the repositories.
var (
	// ErrNotFound is returned when no record, embedding or checkpoint exists for a key.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a record with the same ID or content hash exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidQuery is returned for a zero ID, a nil value or an out-of-range search parameter.
	ErrInvalidQuery = errors.New("invalid query")
)

// Backend and encoding errors.
var (
	ErrTransactionFailed   = errors.New("transaction failed")
	ErrStorageClosed       = errors.New("storage is closed")
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData is returned when a stored ID or vector has the wrong byte length.
	ErrTruncatedData = errors.New("truncated data")
)
