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

// Package compress is the sampling compressor: given an
// uncompressed array, it searches over a registered set of Compressors
// and recursively builds a cheaper encoded tree, stratified-sampling the
// candidates' output size on large arrays instead of encoding the whole
// thing once per candidate. The search state is a Context value with
// With*-option construction, matching the constructor style used
// elsewhere in this module.
package compress

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dolthub/vortex/array"
	"github.com/dolthub/vortex/metrics"
	"github.com/dolthub/vortex/stats"
)

// Config holds the compressor search tunables.
type Config struct {
	SampleSize  int
	SampleCount int
	MaxCost     int
	RNGSeed     uint64
	// SpeedBonus is the alpha term of the objective
	// bytes(sample) - alpha*speed_bonus. Scoring is normally bytes-only;
	// the knob exists but defaults to off.
	SpeedBonus float64
}

// Option configures a Context, matching the functional-option
// constructors used by file.Writer/file.Reader.
type Option func(*Config)

func WithSampleSize(n int) Option         { return func(c *Config) { c.SampleSize = n } }
func WithSampleCount(n int) Option        { return func(c *Config) { c.SampleCount = n } }
func WithMaxCost(n int) Option            { return func(c *Config) { c.MaxCost = n } }
func WithRNGSeed(seed uint64) Option      { return func(c *Config) { c.RNGSeed = seed } }
func WithSpeedBonus(alpha float64) Option { return func(c *Config) { c.SpeedBonus = alpha } }

// DefaultConfig keeps samples small: 8 strata of 64 rows, so any column
// longer than 512 rows is scored on a 512-row sample per candidate.
func DefaultConfig() Config {
	return Config{
		SampleSize:  64,
		SampleCount: 8,
		MaxCost:     3,
		RNGSeed:     0,
		SpeedBonus:  0,
	}
}

// CompressionTree records, per node, which Compressor produced it and
// the sub-templates used for any recursively-compressed children: a
// later array with the same shape can be re-encoded in O(1)
// decisions by replaying the template instead of re-searching.
type CompressionTree struct {
	Compressor string
	Children   []*CompressionTree
	// Metadata is compressor-specific replay state. None of the built-in
	// compressors set it; replay re-derives parameters from the data.
	Metadata any
}

// CompressedArray is the sampling compressor's output: the encoded
// array plus the template that produced it.
type CompressedArray struct {
	Array array.Array
	Tree  *CompressionTree
}

// Compressor is the per-encoding search candidate.
// Implementations live in candidates.go.
type Compressor interface {
	// ID names the compressor, matching the produced array's Encoding().
	ID() string
	// Cost is the depth this compressor charges against Config.MaxCost;
	// container compressors (Chunked, Struct) that recurse charge 0 since
	// they are fast paths, not candidates.
	Cost() int
	// CanCompress is a cheap, stats-only admission check.
	CanCompress(a array.Array) bool
	// Compress performs the actual encode. It may recurse into ctx.Compress
	// for child arrays (e.g. Dict recompressing its codes/values).
	Compress(ctx *Context, a array.Array) (CompressedArray, error)
}

// Context is the sampling compressor's mutable search state:
// depth-tracked, with a disabled set scoped to descendants of a
// self-excluding candidate.
type Context struct {
	compressors []Compressor
	cfg         Config
	depth       int
	disabled    map[string]bool
	logger      *zap.Logger
	timer       *metrics.TimeHistogram
}

// New builds a Context with the default candidate set (candidates.go);
// Chunked and Struct inputs take the fast paths in container.go.
func New(opts ...Option) *Context {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Context{
		compressors: defaultCompressors(),
		cfg:         cfg,
		logger:      zap.NewNop(),
		timer:       new(metrics.TimeHistogram),
	}
}

// WithLogger attaches a structured logger for per-candidate trace
// output.
func (c *Context) WithLogger(l *zap.Logger) *Context {
	clone := *c
	clone.logger = l
	return &clone
}

// Metrics exposes the accumulated per-candidate encode-latency
// histogram (the speed_bonus input term).
func (c *Context) Metrics() metrics.TimeHistogram { return *c.timer }

func (c *Context) childContext(cost int) *Context {
	clone := *c
	clone.depth = c.depth + cost
	return &clone
}

// excluding returns a Context with id added to the disabled set, used
// when a container compressor recurses into an auxiliary array (e.g.
// Dict's codes) that should not recompress itself with Dict again.
func (c *Context) excluding(id string) *Context {
	clone := *c
	clone.disabled = make(map[string]bool, len(c.disabled)+1)
	for k := range c.disabled {
		clone.disabled[k] = true
	}
	clone.disabled[id] = true
	return &clone
}

// auxiliary returns a Context with every disabled compressor
// re-enabled, used when recursing into a structurally distinct
// auxiliary array (e.g. Dict's values) where the
// parent's self-exclusion reasoning no longer applies.
func (c *Context) auxiliary() *Context {
	clone := *c
	clone.disabled = nil
	return &clone
}

// Compress runs the full search: fast paths, then (if a template
// was supplied) a no-search replay, then candidate filtering, sampling,
// objective scoring, and full compression of the winner.
func (c *Context) Compress(a array.Array, like *CompressionTree) (CompressedArray, error) {
	if a.IsEmpty() {
		return CompressedArray{Array: a}, nil
	}

	// Step 1: fast paths.
	if _, ok := a.(array.Constant); ok {
		return CompressedArray{Array: a, Tree: &CompressionTree{Compressor: constantID}}, nil
	}
	if ch, ok := a.(array.Chunked); ok {
		return compressChunked(c, ch)
	}
	if s, ok := a.(array.Struct); ok {
		return compressStruct(c, s)
	}
	if isConstant(a) {
		return compressConstant(c, a)
	}

	// Step 2: template reuse.
	if like != nil {
		if cmp := c.lookup(like.Compressor); cmp != nil {
			out, err := cmp.Compress(c, a)
			if err == nil && out.Array.Len() == a.Len() && out.Array.DType().Equal(a.DType()) {
				return out, nil
			}
			c.logger.Debug(fmt.Sprintf("template %s failed to replay, falling back to search", like.Compressor))
		}
	}

	// Step 3-4: candidate filtering + self-exclusion.
	var candidates []Compressor
	for _, cmp := range c.compressors {
		if c.disabled[cmp.ID()] {
			continue
		}
		if cmp.ID() == a.Encoding() {
			continue
		}
		if c.depth+cmp.Cost() > c.cfg.MaxCost {
			continue
		}
		if !cmp.CanCompress(a) {
			continue
		}
		candidates = append(candidates, cmp)
	}
	if len(candidates) == 0 {
		return CompressedArray{Array: a}, nil
	}

	// Step 5-6: evaluate directly or on a stratified sample.
	sampleSize := c.cfg.SampleSize * c.cfg.SampleCount
	var sample array.Array
	if a.Len() <= sampleSize {
		sample = a
	} else {
		var err error
		sample, err = stratifiedSample(a, c.cfg.SampleSize, c.cfg.SampleCount, c.cfg.RNGSeed)
		if err != nil {
			return CompressedArray{}, err
		}
	}

	best, bestCompressor, err := c.findBest(candidates, sample)
	if err != nil {
		return CompressedArray{}, err
	}
	if bestCompressor == nil {
		// Step 9: fallback.
		return CompressedArray{Array: a}, nil
	}

	// Step 8: full compression with the winning candidate.
	if sample.Len() == a.Len() {
		// The sample *was* the full array; nothing more to do.
		return best, nil
	}
	return bestCompressor.Compress(c.childContext(bestCompressor.Cost()), a)
}

// findBest implements step 7: score every candidate on sample by
// objective = bytes(compressed) - alpha*speed_bonus, picking the
// minimum, tie-broken toward fewer bytes then toward the better ratio.
func (c *Context) findBest(candidates []Compressor, sample array.Array) (CompressedArray, Compressor, error) {
	var best CompressedArray
	var bestCmp Compressor
	bestObjective := float64(sample.NBytes())
	bestRatio := 1.0

	for _, cmp := range candidates {
		start := nowNanos()
		out, err := cmp.Compress(c.childContext(cmp.Cost()), sample)
		elapsed := nowNanos() - start
		if err != nil {
			// Compressors never surface errors from speculative
			// sampling; a failing candidate is simply dropped.
			c.logger.Debug(fmt.Sprintf("candidate %s failed on sample: %v", cmp.ID(), err))
			continue
		}
		c.timer.Sample(uint64(elapsed))

		bytes := float64(out.Array.NBytes())
		speedBonus := 1.0 / float64(1+elapsed)
		objective := bytes - c.cfg.SpeedBonus*speedBonus
		ratio := bytes / float64(sample.NBytes())

		improves := objective < bestObjective
		tiesButSmaller := bestCmp != nil && objective == bestObjective &&
			(bytes < float64(best.Array.NBytes()) || (bytes == float64(best.Array.NBytes()) && ratio < bestRatio))
		if improves || tiesButSmaller {
			bestObjective = objective
			bestRatio = ratio
			best = out
			bestCmp = cmp
		}
	}
	return best, bestCmp, nil
}

func (c *Context) lookup(id string) Compressor {
	for _, cmp := range c.compressors {
		if cmp.ID() == id {
			return cmp
		}
	}
	return nil
}

// isConstant checks the IsConstant admission rule used by step 1's
// ConstantCompressor fast path for arrays that aren't already the
// Constant encoding but happen to hold one repeated value.
func isConstant(a array.Array) bool {
	v, ok := a.Statistics().Get(stats.IsConstant)
	if ok {
		return v.AsBool()
	}
	if a.Len() == 0 {
		return false
	}
	first, err := a.ScalarAt(0)
	if err != nil {
		return false
	}
	for i := 1; i < a.Len(); i++ {
		v, err := a.ScalarAt(i)
		if err != nil {
			return false
		}
		if scalarNotEqual(first, v) {
			return false
		}
	}
	return true
}

func compressConstant(c *Context, a array.Array) (CompressedArray, error) {
	v, err := a.ScalarAt(0)
	if err != nil {
		return CompressedArray{}, err
	}
	// ScalarAt on a valid row reports a non-nullable dtype; the constant
	// must keep the input's own nullability.
	v.DType = a.DType()
	return CompressedArray{Array: array.NewConstant(v, a.Len()), Tree: &CompressionTree{Compressor: constantID}}, nil
}
