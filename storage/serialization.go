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

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/utkarshchauhan26/CivicConnect/core"
)

var (
	namesMUS   = ord.NewSliceSer[string](ord.String)
	vectorMUS  = ord.NewSliceSer[float32](raw.Float32)
	vectorsMUS = ord.NewSliceSer[[]float32](vectorMUS)
)

// NamesDigest identifies a scheme list. Two lists share a digest only when
// they hold the same names in the same order.
func NamesDigest(names []string) string {
	return core.Digest(names...)
}

// Validate checks that a snapshot is internally consistent: vectors align
// with names, share one non-zero dimension, and the digest matches.
func (s *Snapshot) Validate() error {
	if len(s.Vectors) != len(s.Names) {
		return fmt.Errorf("%w: %d names but %d vectors", core.ErrCacheInconsistency, len(s.Names), len(s.Vectors))
	}
	if s.Digest != NamesDigest(s.Names) {
		return fmt.Errorf("%w: name list digest mismatch", core.ErrCacheInconsistency)
	}
	dim := -1
	for i, v := range s.Vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty vector for %q", core.ErrCacheInconsistency, s.Names[i])
		}
		if dim >= 0 && len(v) != dim {
			return fmt.Errorf("%w: vector for %q has dimension %d, want %d", core.ErrCacheInconsistency, s.Names[i], len(v), dim)
		}
		dim = len(v)
	}
	return nil
}

// MarshalNames serializes a scheme list to bytes.
func MarshalNames(names []string) []byte {
	buf := make([]byte, namesMUS.Size(names))
	namesMUS.Marshal(names, buf)
	return buf
}

// UnmarshalNames deserializes a scheme list from bytes.
func UnmarshalNames(data []byte) (names []string, err error) {
	defer recoverDecode(&err)
	names, n, err := namesMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return names, nil
}

// MarshalVectors serializes vectors together with the digest of the name
// list they belong to.
func MarshalVectors(digest string, vectors [][]float32) []byte {
	buf := make([]byte, ord.String.Size(digest)+vectorsMUS.Size(vectors))
	n := ord.String.Marshal(digest, buf)
	vectorsMUS.Marshal(vectors, buf[n:])
	return buf
}

// UnmarshalVectors deserializes the output of MarshalVectors.
func UnmarshalVectors(data []byte) (digest string, vectors [][]float32, err error) {
	defer recoverDecode(&err)
	digest, n, err := ord.String.Unmarshal(data)
	if err != nil {
		return "", nil, fmt.Errorf("%w: digest: %w", ErrSerializationFailed, err)
	}
	vectors, m, err := vectorsMUS.Unmarshal(data[n:])
	if err != nil {
		return "", nil, fmt.Errorf("%w: vectors: %w", ErrSerializationFailed, err)
	}
	if n+m != len(data) {
		return "", nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n-m)
	}
	return digest, vectors, nil
}

// recoverDecode turns a panic raised while decoding corrupt input into
// ErrTruncatedData.
func recoverDecode(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrTruncatedData, r)
	}
}
