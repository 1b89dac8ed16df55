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

// footer.go is the footer region: the encoding context vector followed by
// the Layout tree. The schema (top-level DType) is written to its own
// region at schema_offset, since the trailer references it separately.
package file

import (
	"github.com/dolthub/vortex/array"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/layout"
	"github.com/dolthub/vortex/serial"
)

func encodeSchema(dt dtype.DType) []byte {
	w := serial.NewWriter()
	dtype.Encode(w, dt)
	return w.Bytes()
}

func decodeSchema(b []byte) (dtype.DType, error) {
	r := serial.NewReader(b)
	return dtype.Decode(r)
}

func encodeFooter(vc array.ViewContext, top layout.Layout) []byte {
	w := serial.NewWriter()
	ids := vc.IDs()
	w.WriteVarint(uint64(len(ids)))
	for _, id := range ids {
		w.WriteUint16(uint16(id))
	}
	layout.Encode(w, top)
	return w.Bytes()
}

func decodeFooter(b []byte) (array.ViewContext, layout.Layout, error) {
	r := serial.NewReader(b)
	n, err := r.ReadVarint()
	if err != nil {
		return array.ViewContext{}, layout.Layout{}, err
	}
	ids := make([]array.EncodingID, n)
	for i := range ids {
		id, err := r.ReadUint16()
		if err != nil {
			return array.ViewContext{}, layout.Layout{}, err
		}
		ids[i] = array.EncodingID(id)
	}
	vc := array.NewViewContext(ids)
	top, err := layout.Decode(r)
	if err != nil {
		return array.ViewContext{}, layout.Layout{}, err
	}
	return vc, top, nil
}
