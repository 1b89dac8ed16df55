// Copyright 2019 Dolthub, Inc.
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

// Package hash provides the content hash used for in-memory dictionary
// deduplication (the Dict encoding). This
// is not an on-disk content address — arrays here are addressed by byte
// offset, not by hash — so a fast non-cryptographic hash (xxhash) is
// the right tool, not a cryptographic digest.
package hash

import (
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Hash is a 64-bit content fingerprint.
type Hash uint64

// Of hashes an arbitrary byte string.
func Of(b []byte) Hash {
	return Hash(xxhash.Sum64(b))
}

// Digest incrementally accumulates a hash over multiple byte slices,
// giving the same result as Of over their concatenation.
type Digest struct {
	d *xxhash.Digest
}

func NewDigest() Digest {
	return Digest{d: xxhash.New()}
}

func (d Digest) Write(b []byte) {
	_, _ = d.d.Write(b)
}

func (d Digest) Sum() Hash {
	return Hash(d.d.Sum64())
}

// Slice is a list of hashes that sorts in ascending order.
type Slice []Hash

func (s Slice) Len() int           { return len(s) }
func (s Slice) Less(i, j int) bool { return s[i] < s[j] }
func (s Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

var _ sort.Interface = Slice(nil)
