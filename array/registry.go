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

// registry.go is the process-wide encoding registry. Rather than
// a literal vtable of function pointers, each entry just maps a stable
// id to the encoding's name string; the actual canonicalize/compute
// dispatch lives on the Go value itself (dispatch.go's optional
// interfaces). A ViewContext is an ordered subset of the registry used
// by the file format so the on-disk id for a given file is an
// index into that file's own context, not the process-wide id.
package array

import "github.com/dolthub/vortex/errtax"

// EncodingID is the process-wide, stable identifier for a physical
// encoding, independent of any one file's ViewContext.
type EncodingID uint16

const (
	EncodingNull EncodingID = iota
	EncodingBool
	EncodingPrimitive
	EncodingVarBin
	EncodingStruct
	EncodingChunked
	EncodingConstant
	EncodingDict
	EncodingPatched
	EncodingBitPacked
	EncodingALP
	EncodingALPRD
)

var encodingNames = map[EncodingID]string{
	EncodingNull:      "vortex.null",
	EncodingBool:      "vortex.bool",
	EncodingPrimitive: "vortex.primitive",
	EncodingVarBin:    "vortex.varbin",
	EncodingStruct:    "vortex.struct",
	EncodingChunked:   "vortex.chunked",
	EncodingConstant:  "vortex.constant",
	EncodingDict:      "vortex.dict",
	EncodingPatched:   "vortex.patched",
	EncodingBitPacked: "vortex.bitpacked",
	EncodingALP:       "vortex.alp",
	EncodingALPRD:     "vortex.alprd",
}

var encodingIDs = func() map[string]EncodingID {
	m := make(map[string]EncodingID, len(encodingNames))
	for id, name := range encodingNames {
		m[name] = id
	}
	return m
}()

// NameOf returns the registered name for id, e.g. "vortex.dict".
func NameOf(id EncodingID) (string, bool) {
	n, ok := encodingNames[id]
	return n, ok
}

// IDOf returns the registered id for an Array's Encoding() name.
func IDOf(name string) (EncodingID, bool) {
	id, ok := encodingIDs[name]
	return id, ok
}

// ViewContext is an ordered projection of the registry: position
// k in the slice is the on-disk id k refers to within one file, letting
// a file reference only the handful of encodings it actually used
// instead of baking in the full process-wide id space.
type ViewContext struct {
	ids []EncodingID
}

// NewViewContext builds a context from an explicit, ordered id list
// (e.g. one read back from a file's footer).
func NewViewContext(ids []EncodingID) ViewContext {
	return ViewContext{ids: ids}
}

// CollectViewContext builds the smallest context that can represent
// every encoding reachable from root, in a stable first-seen order —
// used by the file writer when serializing a tree.
func CollectViewContext(root Array) (ViewContext, error) {
	seen := make(map[EncodingID]bool)
	var ids []EncodingID
	var walk func(a Array) error
	walk = func(a Array) error {
		id, ok := IDOf(a.Encoding())
		if !ok {
			return errtax.NotImplemented("view_context", a.Encoding())
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
		for _, c := range a.Children() {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return ViewContext{}, err
	}
	return NewViewContext(ids), nil
}

// CollectViewContextAll is CollectViewContext over several root arrays
// sharing one context, used by the file writer to build a single
// per-file context spanning every column's chunks and the statistics
// table.
func CollectViewContextAll(roots []Array) (ViewContext, error) {
	seen := make(map[EncodingID]bool)
	var ids []EncodingID
	var walk func(a Array) error
	walk = func(a Array) error {
		id, ok := IDOf(a.Encoding())
		if !ok {
			return errtax.NotImplemented("view_context", a.Encoding())
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
		for _, c := range a.Children() {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range roots {
		if err := walk(root); err != nil {
			return ViewContext{}, err
		}
	}
	return NewViewContext(ids), nil
}

// LocalIndexOf returns id's position within vc, the value actually
// written to a file for that encoding.
func (vc ViewContext) LocalIndexOf(id EncodingID) (int, bool) {
	for i, v := range vc.ids {
		if v == id {
			return i, true
		}
	}
	return 0, false
}

// EncodingAt resolves a file-local index back to a process-wide id.
func (vc ViewContext) EncodingAt(idx int) (EncodingID, bool) {
	if idx < 0 || idx >= len(vc.ids) {
		return 0, false
	}
	return vc.ids[idx], true
}

// IDs returns the context's ids in on-disk order, used when writing the
// context itself into a file footer.
func (vc ViewContext) IDs() []EncodingID { return vc.ids }
