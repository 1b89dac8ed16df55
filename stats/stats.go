// Copyright 2022 Dolthub, Inc.
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

// Package stats is the lazy, mergeable per-array statistics set:
// populated on demand, never
// invalidated once set (arrays are immutable), guarded by a lock that
// serializes writers and allows concurrent readers.
package stats

import (
	"sync"

	"github.com/dolthub/vortex/scalar"
)

// Stat names one entry of the statistics set.
type Stat uint8

const (
	Min Stat = iota
	Max
	IsConstant
	IsSorted
	IsStrictSorted
	RunCount
	TrueCount
	NullCount
	BitWidthFreq
	TrailingZeroFreq
)

// MaxRunCount caps RunCount at merge time rather than computing it
// exactly across a boundary.
const MaxRunCount = 1 << 20

var statNames = [...]string{
	Min: "min", Max: "max", IsConstant: "is_constant", IsSorted: "is_sorted",
	IsStrictSorted: "is_strict_sorted", RunCount: "run_count", TrueCount: "true_count",
	NullCount: "null_count", BitWidthFreq: "bit_width_freq", TrailingZeroFreq: "trailing_zero_freq",
}

// String names st, e.g. for stats-dump tooling.
func (st Stat) String() string {
	if int(st) < len(statNames) {
		return statNames[st]
	}
	return "unknown"
}

// Set is a lazily populated, mergeable mapping Stat -> Scalar, built with
// New. A zero Set reads as empty through Get and Snapshot, but its map is
// nil, so Set and GetOrCompute on it panic. Set is safe for concurrent use.
type Set struct {
	mu     sync.RWMutex
	values map[Stat]scalar.Scalar
}

func New() *Set {
	return &Set{values: make(map[Stat]scalar.Scalar)}
}

// Get returns the cached value for s, if any has been computed.
func (s *Set) Get(st Stat) (scalar.Scalar, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[st]
	return v, ok
}

// GetOrCompute returns the cached value for st, computing and caching it
// via compute on first access. Writes are monotonic: an existing entry is
// never overwritten.
func (s *Set) GetOrCompute(st Stat, compute func() scalar.Scalar) scalar.Scalar {
	s.mu.RLock()
	v, ok := s.values[st]
	s.mu.RUnlock()
	if ok {
		return v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[st]; ok {
		return v
	}
	v = compute()
	s.values[st] = v
	return v
}

// Set stores a precomputed value, e.g. one derived during construction
// (a Constant array knows IsConstant=true for free).
func (s *Set) Set(st Stat, v scalar.Scalar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[st]; !ok {
		s.values[st] = v
	}
}

// Snapshot returns a defensive copy of every populated entry, used when
// writing the statistics table of a file chunk.
func (s *Set) Snapshot() map[Stat]scalar.Scalar {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Stat]scalar.Scalar, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Merge combines the statistics of two logically-adjacent arrays A, B
// (in that order) into the statistics of their concatenation, under the
// concatenation laws. It returns conservative (non-lossy) values: the
// result may be less precise than recomputing from scratch (run_count is
// clamped) but is never wrong in a way that would make pruning unsound.
func Merge(a, b map[Stat]scalar.Scalar, aLen, bLen int) map[Stat]scalar.Scalar {
	out := make(map[Stat]scalar.Scalar)

	if av, ok := a[Min]; ok {
		if bv, ok := b[Min]; ok {
			if scalar.Compare(av, bv) <= 0 {
				out[Min] = av
			} else {
				out[Min] = bv
			}
		}
	}
	if av, ok := a[Max]; ok {
		if bv, ok := b[Max]; ok {
			if scalar.Compare(av, bv) >= 0 {
				out[Max] = av
			} else {
				out[Max] = bv
			}
		}
	}
	if av, ok := a[NullCount]; ok {
		if bv, ok := b[NullCount]; ok {
			out[NullCount] = scalar.Uint(av.DType.Ptype(), av.AsUint()+bv.AsUint())
		}
	}
	if av, ok := a[TrueCount]; ok {
		if bv, ok := b[TrueCount]; ok {
			out[TrueCount] = scalar.Uint(av.DType.Ptype(), av.AsUint()+bv.AsUint())
		}
	}

	aSorted, aSortedOK := boolStat(a, IsSorted)
	bSorted, bSortedOK := boolStat(b, IsSorted)
	aStrict, aStrictOK := boolStat(a, IsStrictSorted)
	bStrict, bStrictOK := boolStat(b, IsStrictSorted)
	aMax, haveAMax := a[Max]
	bMin, haveBMin := b[Min]

	if aSortedOK && bSortedOK && haveAMax && haveBMin {
		boundaryLE := scalar.Compare(aMax, bMin) <= 0
		out[IsSorted] = scalar.Bool(aSorted && bSorted && boundaryLE)
	}
	if aStrictOK && bStrictOK && haveAMax && haveBMin {
		boundaryLT := scalar.Compare(aMax, bMin) < 0
		out[IsStrictSorted] = scalar.Bool(aStrict && bStrict && boundaryLT)
	}

	if av, ok := a[RunCount]; ok {
		if bv, ok := b[RunCount]; ok {
			runs := av.AsUint() + bv.AsUint()
			// The boundary between A and B may merge two runs into one,
			// or may split none; we can't tell without re-scanning, so
			// conservatively add one possible extra run rather than
			// under-count, then clamp.
			runs++
			if runs > MaxRunCount {
				runs = MaxRunCount
			}
			out[RunCount] = scalar.Uint(av.DType.Ptype(), runs)
		}
	}

	if av, ok := a[IsConstant]; ok {
		if bv, ok := b[IsConstant]; ok {
			aConst := av.AsBool()
			bConst := bv.AsBool()
			sameValue := false
			if aConst && bConst {
				if amin, ok1 := a[Min]; ok1 {
					if bmin, ok2 := b[Min]; ok2 {
						sameValue = scalar.Compare(amin, bmin) == 0
					}
				}
			}
			out[IsConstant] = scalar.Bool(aConst && bConst && sameValue && aLen > 0 && bLen > 0)
		}
	}

	return out
}

func boolStat(m map[Stat]scalar.Scalar, st Stat) (bool, bool) {
	v, ok := m[st]
	if !ok {
		return false, false
	}
	return v.AsBool(), true
}
