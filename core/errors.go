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


package core

import (
	"errors"
	"fmt"
)

// Capability errors
var (
	// ErrEmptyInput indicates the document is shorter than MinDocumentLength.
	ErrEmptyInput = errors.New("document text is empty or too short")

	// ErrMalformedOutput indicates a capability response did not contain valid structured data.
	ErrMalformedOutput = errors.New("malformed capability output")

	// ErrInsufficientOutput indicates structured data that fails the capability's semantic constraints.
	ErrInsufficientOutput = errors.New("insufficient capability output")

	// ErrDimensionMismatch indicates an embedding of the wrong length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrUnknownKind indicates a capability kind outside the declared set.
	ErrUnknownKind = errors.New("unknown capability kind")
)

// Domain validation errors
var (
	// ErrInvalidRecord indicates a ContentRecord failed validation.
	ErrInvalidRecord = errors.New("invalid content record")

	// ErrInvalidDocumentCount indicates a negative document count for cost estimation.
	ErrInvalidDocumentCount = errors.New("document count cannot be negative")

	// ErrVectorLengthMismatch indicates two vectors of different lengths were compared.
	ErrVectorLengthMismatch = errors.New("vector length mismatch")

	// ErrEmptyVector indicates a zero-length vector.
	ErrEmptyVector = errors.New("vector is empty")
)

// CapabilityError attaches the originating capability kind to a failure.
type CapabilityError struct {
	Kind Kind
	Err  error
}

// NewCapabilityError wraps err with the capability kind that produced it.
func NewCapabilityError(kind Kind, err error) *CapabilityError {
	return &CapabilityError{Kind: kind, Err: err}
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// KindOf returns the capability kind attached to err, if any.
func KindOf(err error) (Kind, bool) {
	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		return capErr.Kind, true
	}
	return 0, false
}
