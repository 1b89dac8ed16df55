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

package compress

import (
	"time"

	"github.com/dolthub/vortex/scalar"
)

func scalarNotEqual(a, b scalar.Scalar) bool {
	if a.IsNull() != b.IsNull() {
		return true
	}
	if a.IsNull() {
		return false
	}
	return scalar.Compare(a, b) != 0
}

// nowNanos is the only place compress reaches for wall-clock time (the
// objective's speed_bonus term); kept as a single indirection so
// tests can't be made flaky by it mattering for correctness, only for
// tie-breaking an already-equal-bytes objective.
func nowNanos() int64 { return time.Now().UnixNano() }
