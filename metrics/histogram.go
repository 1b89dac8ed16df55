// Copyright 2019 Liquidata, Inc.
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
//
// This file incorporates work covered by the following copyright and
// permission notice:
//
// Copyright 2017 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

// Package metrics provides the histograms the sampling compressor uses
// to record how long each candidate took to encode its sample; the file
// reader and writer record no metrics. Histogram buckets
// samples by power-of-two magnitude rather than tracking every sample,
// so instrumenting a hot compression loop stays effectively free.
package metrics

import (
	"fmt"
	"math/bits"
	"time"

	"github.com/dustin/go-humanize"
)

// numBuckets covers every representable uint64 magnitude.
const numBuckets = 64

// Histogram buckets uint64 samples by their bit length: a value v falls
// in bucket bits.Len64(v)-1 (bucket 0 holds just the value 1). This is
// coarse but allocation-free and safe to update from a hot path, unlike
// keeping every sample.
type Histogram struct {
	buckets [numBuckets]uint64
	count   uint64
	sum     uint64
}

// bucketVal returns the smallest value that falls in bucket i.
func (h *Histogram) bucketVal(i int) uint64 {
	return uint64(1) << uint(i)
}

// Sample records one observation.
func (h *Histogram) Sample(v uint64) {
	b := 0
	if v > 0 {
		b = bits.Len64(v) - 1
	}
	h.buckets[b]++
	h.count++
	h.sum += v
}

// Add merges another histogram's samples into h.
func (h *Histogram) Add(other Histogram) {
	for i := range h.buckets {
		h.buckets[i] += other.buckets[i]
	}
	h.count += other.count
	h.sum += other.sum
}

func (h *Histogram) Samples() uint64 { return h.count }
func (h *Histogram) Sum() uint64     { return h.sum }

// Mean returns 0 if no samples have been recorded.
func (h *Histogram) Mean() uint64 {
	if h.count == 0 {
		return 0
	}
	return h.sum / h.count
}

func (h *Histogram) String() string {
	return fmt.Sprintf("Mean: %d, Sum: %d, Samples: %d", h.Mean(), h.Sum(), h.Samples())
}

// TimeHistogram renders samples as durations, used for the sampling
// compressor's per-candidate encode latency.
type TimeHistogram struct {
	Histogram
}

func NewTimeHistogram() TimeHistogram { return TimeHistogram{} }

// SampleDuration records d's nanosecond count as one sample.
func (th *TimeHistogram) SampleDuration(d time.Duration) {
	th.Sample(uint64(d.Nanoseconds()))
}

func (th *TimeHistogram) String() string {
	return fmt.Sprintf("Mean: %v, Sum: %v, Samples: %d",
		time.Duration(th.Mean()), time.Duration(th.Sum()), th.Samples())
}

// ByteHistogram renders samples as human-readable byte sizes.
type ByteHistogram struct {
	Histogram
}

func NewByteHistogram() ByteHistogram { return ByteHistogram{} }

func (bh *ByteHistogram) String() string {
	return fmt.Sprintf("Mean: %s, Sum: %s, Samples: %d",
		humanize.Bytes(bh.Mean()), humanize.Bytes(bh.Sum()), bh.Samples())
}
