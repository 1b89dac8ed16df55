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

package layout

import (
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/serial"
)

// Kind tags a Layout node's variant.
type Kind uint8

const (
	// Flat is a contiguous byte range holding one serialized array.
	Flat Kind = iota
	// Chunked's first child is the statistics table layout; the rest
	// are data chunk layouts in order.
	Chunked
	// Column has one child per struct field, in schema order. Called
	// "Nested" in the flatbuffer union this mirrors.
	Column
)

// Layout is a node in the file footer's layout tree. The zero value is
// not meaningful; use NewFlat/NewChunked/NewColumn.
type Layout struct {
	kind     Kind
	begin    uint64
	end      uint64
	children []Layout
}

func NewFlat(begin, end uint64) Layout {
	return Layout{kind: Flat, begin: begin, end: end}
}

// NewChunked builds a Chunked layout. statsTable must be children[0];
// dataChunks follow in chunk order.
func NewChunked(statsTable Layout, dataChunks []Layout) Layout {
	children := make([]Layout, 0, len(dataChunks)+1)
	children = append(children, statsTable)
	children = append(children, dataChunks...)
	return Layout{kind: Chunked, children: children}
}

func NewColumn(fields []Layout) Layout {
	return Layout{kind: Column, children: append([]Layout(nil), fields...)}
}

func (l Layout) Kind() Kind         { return l.kind }
func (l Layout) Begin() uint64      { return l.begin }
func (l Layout) End() uint64        { return l.end }
func (l Layout) Children() []Layout { return l.children }

// StatsTable returns a Chunked layout's statistics-table child.
func (l Layout) StatsTable() Layout {
	return l.children[0]
}

// DataChunks returns a Chunked layout's data chunk children, in order.
func (l Layout) DataChunks() []Layout {
	return l.children[1:]
}

// Field returns a Column layout's i'th field layout.
func (l Layout) Field(i int) Layout {
	return l.children[i]
}

// Encode writes l's layout tree as tagged nodes, mirroring the Layout
// union of the on-disk format.
func Encode(w *serial.Writer, l Layout) {
	w.WriteUint8(uint8(l.kind))
	switch l.kind {
	case Flat:
		w.WriteUint64(l.begin)
		w.WriteUint64(l.end)
	case Chunked, Column:
		w.WriteVarint(uint64(len(l.children)))
		for _, c := range l.children {
			Encode(w, c)
		}
	}
}

// Decode reads a layout tree previously written by Encode.
func Decode(r *serial.Reader) (Layout, error) {
	tag, err := r.ReadUint8()
	if err != nil {
		return Layout{}, err
	}
	switch Kind(tag) {
	case Flat:
		begin, err := r.ReadUint64()
		if err != nil {
			return Layout{}, err
		}
		end, err := r.ReadUint64()
		if err != nil {
			return Layout{}, err
		}
		return NewFlat(begin, end), nil
	case Chunked, Column:
		n, err := r.ReadVarint()
		if err != nil {
			return Layout{}, err
		}
		children := make([]Layout, n)
		for i := range children {
			c, err := Decode(r)
			if err != nil {
				return Layout{}, err
			}
			children[i] = c
		}
		return Layout{kind: Kind(tag), children: children}, nil
	default:
		return Layout{}, errtax.MalformedFile("unknown layout tag %d", tag)
	}
}
