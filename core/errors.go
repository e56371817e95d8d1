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

import "errors"

// Error kinds surfaced to callers.
var (
	// ErrData indicates the source dataset is missing or malformed.
	ErrData = errors.New("invalid dataset")

	// ErrCacheInconsistency indicates a persisted embedding cache does not
	// match the current scheme list. It is handled by rebuilding.
	ErrCacheInconsistency = errors.New("embedding cache inconsistent")

	// ErrEncoder indicates the text encoder failed or returned unusable vectors.
	ErrEncoder = errors.New("encoder failure")

	// ErrInvalidInput indicates a recommendation request failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Profile validation errors
var (
	// ErrMissingField indicates a required request field is absent.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidAge indicates the age is outside the accepted range.
	ErrInvalidAge = errors.New("age must be between 1 and 150")

	// ErrInvalidIncome indicates a negative annual income.
	ErrInvalidIncome = errors.New("annual income cannot be negative")

	// ErrEmptyCategory indicates the category is blank.
	ErrEmptyCategory = errors.New("category cannot be empty")

	// ErrEmptyState indicates the state is blank.
	ErrEmptyState = errors.New("state cannot be empty")

	// ErrInvalidTopK indicates a non-positive result count.
	ErrInvalidTopK = errors.New("top_k must be greater than 0")
)
