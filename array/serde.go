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

// serde.go implements the ArrayNode wire format: encoding id
// (as an index into the file's ViewContext), dtype, length, an
// encoding-specific metadata blob, and recursively-serialized children.
// Buffers are pulled out of the node tree into a side list in
// depth-first order, forming the Chunk message's buffer-descriptor
// vector; the file package is the one that pads each
// buffer to a 64-byte boundary and writes the descriptor offsets, this
// package only deals with the abstract list.
package array

import (
	"github.com/dolthub/vortex/buffer"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/serial"
	"github.com/dolthub/vortex/stats"
	"github.com/dolthub/vortex/validity"
)

// statOrder fixes the wire order of the serialized ArrayStats fields.
// BitWidthFreq and TrailingZeroFreq are never populated anywhere in this
// module (no compute path computes a per-bit-width histogram), so they
// have no wire representation here.
var statOrder = []stats.Stat{
	stats.Min, stats.Max, stats.IsConstant, stats.IsSorted,
	stats.IsStrictSorted, stats.RunCount, stats.TrueCount, stats.NullCount,
}

func statDType(s stats.Stat, dt dtype.DType) dtype.DType {
	switch s {
	case stats.Min, stats.Max:
		return dt
	case stats.IsConstant, stats.IsSorted, stats.IsStrictSorted:
		return dtype.Bool(false)
	default:
		return dtype.Primitive(dtype.U64, false)
	}
}

func writeStats(w *serial.Writer, dt dtype.DType, st *stats.Set) {
	snap := st.Snapshot()
	for _, s := range statOrder {
		v, ok := snap[s]
		w.WriteBool(ok)
		if ok {
			encodeScalar(w, v)
		}
	}
}

func readStats(r *serial.Reader, dt dtype.DType) (map[stats.Stat]scalar.Scalar, error) {
	out := make(map[stats.Stat]scalar.Scalar)
	for _, s := range statOrder {
		present, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}
		v, err := decodeScalar(r, statDType(s, dt))
		if err != nil {
			return nil, err
		}
		out[s] = v
	}
	return out, nil
}

func applyStats(set *stats.Set, snap map[stats.Stat]scalar.Scalar) {
	for k, v := range snap {
		set.Set(k, v)
	}
}

// bufCollector accumulates buffers in depth-first visitation order
// during encode.
type bufCollector struct {
	bufs []buffer.Buffer
}

func (c *bufCollector) add(b buffer.Buffer) int {
	c.bufs = append(c.bufs, b)
	return len(c.bufs) - 1
}

// EncodeArrayTree serializes a's full encoded tree: the ViewContext it
// requires, the tagged node bytes, and the buffers referenced by the
// tree in depth-first order.
func EncodeArrayTree(a Array) (ViewContext, []byte, []buffer.Buffer, error) {
	vc, err := CollectViewContext(a)
	if err != nil {
		return ViewContext{}, nil, nil, err
	}
	w := serial.NewWriter()
	bc := &bufCollector{}
	if err := encodeNode(w, bc, vc, a); err != nil {
		return ViewContext{}, nil, nil, err
	}
	return vc, w.Bytes(), bc.bufs, nil
}

// DecodeArrayTree reconstructs an array tree from bytes previously
// produced by EncodeArrayTree, given the same ViewContext and buffer
// list (the file reader supplies both from the footer and the chunk's
// fetched byte ranges).
func DecodeArrayTree(vc ViewContext, nodeBytes []byte, buffers []buffer.Buffer) (Array, error) {
	r := serial.NewReader(nodeBytes)
	return decodeNode(r, vc, buffers)
}

// EncodeArrayTreeWithContext serializes a against a caller-supplied
// ViewContext instead of collecting a fresh one, so a writer emitting
// many chunks can share one context across the whole file: the context
// is an ordered list of encoding id strings written once per file, not
// once per chunk.
func EncodeArrayTreeWithContext(vc ViewContext, a Array) ([]byte, []buffer.Buffer, error) {
	w := serial.NewWriter()
	bc := &bufCollector{}
	if err := encodeNode(w, bc, vc, a); err != nil {
		return nil, nil, err
	}
	return w.Bytes(), bc.bufs, nil
}

func writeHeader(w *serial.Writer, bc *bufCollector, vc ViewContext, a Array) error {
	id, ok := IDOf(a.Encoding())
	if !ok {
		return errtax.NotImplemented("serialize", a.Encoding())
	}
	idx, ok := vc.LocalIndexOf(id)
	if !ok {
		return errtax.MalformedFile("encoding %s missing from view context", a.Encoding())
	}
	w.WriteUint16(uint16(idx))
	dtype.Encode(w, a.DType())
	w.WriteVarint(uint64(a.Len()))
	writeStats(w, a.DType(), a.Statistics())
	return nil
}

func encodeNode(w *serial.Writer, bc *bufCollector, vc ViewContext, a Array) error {
	if err := writeHeader(w, bc, vc, a); err != nil {
		return err
	}
	switch v := a.(type) {
	case Null:
		return nil
	case Bool:
		w.WriteVarint(uint64(v.offset))
		idx := bc.add(v.packed)
		w.WriteVarint(uint64(idx))
		writeValidity(w, bc, v.valid, v.length)
		return nil
	case Primitive:
		wbytes := v.byteWidth()
		raw := v.data.Bytes()[v.offset*wbytes : (v.offset+v.length)*wbytes]
		idx := bc.add(buffer.New(raw))
		w.WriteVarint(uint64(idx))
		writeValidity(w, bc, v.valid, v.length)
		return nil
	case VarBin:
		return encodeVarBin(w, bc, v)
	case Struct:
		writeValidity(w, bc, v.valid, v.length)
		for _, f := range v.fields {
			if err := encodeNode(w, bc, vc, f); err != nil {
				return err
			}
		}
		return nil
	case Chunked:
		w.WriteVarint(uint64(len(v.chunks)))
		for _, c := range v.chunks {
			if err := encodeNode(w, bc, vc, c); err != nil {
				return err
			}
		}
		return nil
	case Constant:
		encodeScalar(w, v.value)
		return nil
	case Dict:
		if err := encodeNode(w, bc, vc, v.codes); err != nil {
			return err
		}
		return encodeNode(w, bc, vc, v.values)
	case Patched:
		if err := encodeNode(w, bc, vc, v.data); err != nil {
			return err
		}
		if err := encodeNode(w, bc, vc, v.patchIndices); err != nil {
			return err
		}
		if err := encodeNode(w, bc, vc, v.patchValues); err != nil {
			return err
		}
		w.WriteVarint(uint64(v.offset))
		return nil
	case BitPacked:
		w.WriteVarint(uint64(v.width))
		encodeScalar(w, v.minVal)
		w.WriteVarint(uint64(v.rowOffset))
		writeValidity(w, bc, v.valid, v.length)
		idx := bc.add(v.packed)
		w.WriteVarint(uint64(idx))
		w.WriteBool(v.patches != nil)
		if v.patches != nil {
			return encodeNode(w, bc, vc, *v.patches)
		}
		return nil
	case ALP:
		w.WriteVarint(uint64(v.e))
		w.WriteVarint(uint64(v.f))
		writeValidity(w, bc, v.valid, v.length)
		if err := encodeNode(w, bc, vc, v.encoded); err != nil {
			return err
		}
		w.WriteBool(v.patches != nil)
		if v.patches != nil {
			return encodeNode(w, bc, vc, *v.patches)
		}
		return nil
	case ALPRD:
		w.WriteVarint(uint64(v.rightWidth))
		w.WriteVarint(uint64(v.leftWidth))
		w.WriteVarint(uint64(len(v.dict)))
		for _, d := range v.dict {
			w.WriteUint16(d)
		}
		w.WriteVarint(uint64(v.rowOffset))
		writeValidity(w, bc, v.valid, v.length)
		if err := encodeNode(w, bc, vc, v.leftCodes); err != nil {
			return err
		}
		idx := bc.add(v.right)
		w.WriteVarint(uint64(idx))
		w.WriteBool(v.exceptions != nil)
		if v.exceptions != nil {
			return encodeNode(w, bc, vc, *v.exceptions)
		}
		return nil
	default:
		return errtax.NotImplemented("serialize", a.Encoding())
	}
}

// encodeVarBin normalizes the offsets to start at zero and only writes
// the bytes actually referenced by [offsets[0], offsets[length]), rather
// than whatever larger buffer this slice happens to share storage with.
func encodeVarBin(w *serial.Writer, bc *bufCollector, v VarBin) error {
	base := v.offsets[0]
	end := v.offsets[v.length]
	for i := 0; i <= v.length; i++ {
		w.WriteVarint(v.offsets[i] - base)
	}
	idx := bc.add(buffer.New(v.data.Bytes()[base:end]))
	w.WriteVarint(uint64(idx))
	writeValidity(w, bc, v.valid, v.length)
	return nil
}

func decodeNode(r *serial.Reader, vc ViewContext, buffers []buffer.Buffer) (Array, error) {
	localIdx, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	id, ok := vc.EncodingAt(int(localIdx))
	if !ok {
		return nil, errtax.MalformedFile("unknown local encoding index %d", localIdx)
	}
	name, ok := NameOf(id)
	if !ok {
		return nil, errtax.MalformedFile("unregistered encoding id %d", id)
	}
	dt, err := dtype.Decode(r)
	if err != nil {
		return nil, err
	}
	lengthU, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	length := int(lengthU)

	statSnap, err := readStats(r, dt)
	if err != nil {
		return nil, err
	}

	var arr Array
	switch name {
	case "vortex.null":
		arr = NewNull(length)
	case "vortex.bool":
		arr, err = decodeBool(r, dt, length, buffers)
	case "vortex.primitive":
		arr, err = decodePrimitive(r, dt, length, buffers)
	case "vortex.varbin":
		arr, err = decodeVarBin(r, dt, length, buffers)
	case "vortex.struct":
		arr, err = decodeStruct(r, vc, dt, length, buffers)
	case "vortex.chunked":
		arr, err = decodeChunked(r, vc, dt, buffers)
	case "vortex.constant":
		var v scalar.Scalar
		v, err = decodeScalar(r, dt)
		if err == nil {
			arr = NewConstant(v, length)
		}
	case "vortex.dict":
		var codes, values Array
		codes, err = decodeNode(r, vc, buffers)
		if err == nil {
			values, err = decodeNode(r, vc, buffers)
		}
		if err == nil {
			arr = NewDict(dt, codes, values)
		}
	case "vortex.patched":
		arr, err = decodePatched(r, vc, buffers)
	case "vortex.bitpacked":
		arr, err = decodeBitPacked(r, vc, dt, length, buffers)
	case "vortex.alp":
		arr, err = decodeALP(r, vc, dt, length, buffers)
	case "vortex.alprd":
		arr, err = decodeALPRD(r, vc, dt, length, buffers)
	default:
		err = errtax.NotImplemented("deserialize", name)
	}
	if err != nil {
		return nil, err
	}
	applyStats(arr.Statistics(), statSnap)
	return arr, nil
}

func decodeBool(r *serial.Reader, dt dtype.DType, length int, buffers []buffer.Buffer) (Array, error) {
	offsetU, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	bufIdx, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	buf, err := lookupBuffer(buffers, bufIdx)
	if err != nil {
		return nil, err
	}
	valid, err := readValidity(r, length, buffers)
	if err != nil {
		return nil, err
	}
	return Bool{offset: int(offsetU), length: length, packed: buf, valid: valid, nullable: dt.IsNullable(), st: stats.New()}, nil
}

func decodePrimitive(r *serial.Reader, dt dtype.DType, length int, buffers []buffer.Buffer) (Array, error) {
	bufIdx, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	buf, err := lookupBuffer(buffers, bufIdx)
	if err != nil {
		return nil, err
	}
	valid, err := readValidity(r, length, buffers)
	if err != nil {
		return nil, err
	}
	return NewPrimitive(dt.Ptype(), dt.IsNullable(), length, buf, valid), nil
}

func decodeVarBin(r *serial.Reader, dt dtype.DType, length int, buffers []buffer.Buffer) (Array, error) {
	offsets := make([]uint64, length+1)
	for i := 0; i <= length; i++ {
		v, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		offsets[i] = v
	}
	bufIdx, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	buf, err := lookupBuffer(buffers, bufIdx)
	if err != nil {
		return nil, err
	}
	valid, err := readValidity(r, length, buffers)
	if err != nil {
		return nil, err
	}
	return NewVarBin(dt.Kind() == dtype.KindUtf8, dt.IsNullable(), offsets, buf, valid), nil
}

func decodeStruct(r *serial.Reader, vc ViewContext, dt dtype.DType, length int, buffers []buffer.Buffer) (Array, error) {
	valid, err := readValidity(r, length, buffers)
	if err != nil {
		return nil, err
	}
	fieldTypes := dt.FieldTypes()
	fields := make([]Array, len(fieldTypes))
	for i := range fieldTypes {
		f, err := decodeNode(r, vc, buffers)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	return NewStruct(dt.FieldNames(), fields, valid, dt.IsNullable()), nil
}

func decodeChunked(r *serial.Reader, vc ViewContext, dt dtype.DType, buffers []buffer.Buffer) (Array, error) {
	nU, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	n := int(nU)
	chunks := make([]Array, n)
	for i := 0; i < n; i++ {
		c, err := decodeNode(r, vc, buffers)
		if err != nil {
			return nil, err
		}
		chunks[i] = c
	}
	return NewChunked(dt, chunks), nil
}

func decodePatched(r *serial.Reader, vc ViewContext, buffers []buffer.Buffer) (Array, error) {
	data, err := decodeNode(r, vc, buffers)
	if err != nil {
		return nil, err
	}
	idx, err := decodeNode(r, vc, buffers)
	if err != nil {
		return nil, err
	}
	vals, err := decodeNode(r, vc, buffers)
	if err != nil {
		return nil, err
	}
	offU, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	p, err := TryNewPatched(data, idx, vals, int(offU))
	if err != nil {
		return nil, err
	}
	return p, nil
}

func decodeBitPacked(r *serial.Reader, vc ViewContext, dt dtype.DType, length int, buffers []buffer.Buffer) (Array, error) {
	widthU, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	minVal, err := decodeScalar(r, dtype.Primitive(dt.Ptype(), false))
	if err != nil {
		return nil, err
	}
	rowOffU, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	valid, err := readValidity(r, length, buffers)
	if err != nil {
		return nil, err
	}
	bufIdx, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	buf, err := lookupBuffer(buffers, bufIdx)
	if err != nil {
		return nil, err
	}
	hasPatches, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	bp := BitPacked{
		ptype: dt.Ptype(), nullable: dt.IsNullable(), width: int(widthU), minVal: minVal,
		rowOffset: int(rowOffU), length: length, packed: buf, valid: valid, st: stats.New(),
	}
	if hasPatches {
		p, err := decodeNode(r, vc, buffers)
		if err != nil {
			return nil, err
		}
		pp := p.(Patched)
		bp.patches = &pp
	}
	return bp, nil
}

func decodeALP(r *serial.Reader, vc ViewContext, dt dtype.DType, length int, buffers []buffer.Buffer) (Array, error) {
	eU, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	fU, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	valid, err := readValidity(r, length, buffers)
	if err != nil {
		return nil, err
	}
	encoded, err := decodeNode(r, vc, buffers)
	if err != nil {
		return nil, err
	}
	hasPatches, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	alp := ALP{ptype: dt.Ptype(), nullable: dt.IsNullable(), length: length, e: int(eU), f: int(fU), encoded: encoded, valid: valid, st: stats.New()}
	if hasPatches {
		p, err := decodeNode(r, vc, buffers)
		if err != nil {
			return nil, err
		}
		pp := p.(Patched)
		alp.patches = &pp
	}
	return alp, nil
}

func decodeALPRD(r *serial.Reader, vc ViewContext, dt dtype.DType, length int, buffers []buffer.Buffer) (Array, error) {
	rightU, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	leftU, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	dictN, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	dict := make([]uint16, dictN)
	for i := range dict {
		d, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		dict[i] = d
	}
	rowOffU, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	valid, err := readValidity(r, length, buffers)
	if err != nil {
		return nil, err
	}
	leftCodes, err := decodeNode(r, vc, buffers)
	if err != nil {
		return nil, err
	}
	bufIdx, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	right, err := lookupBuffer(buffers, bufIdx)
	if err != nil {
		return nil, err
	}
	hasExc, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	out := ALPRD{
		ptype: dt.Ptype(), nullable: dt.IsNullable(), length: length,
		rightWidth: int(rightU), leftWidth: int(leftU), dict: dict, rowOffset: int(rowOffU),
		leftCodes: leftCodes, right: right, valid: valid, st: stats.New(),
	}
	if hasExc {
		e, err := decodeNode(r, vc, buffers)
		if err != nil {
			return nil, err
		}
		ee := e.(Patched)
		out.exceptions = &ee
	}
	return out, nil
}

func lookupBuffer(buffers []buffer.Buffer, idx uint64) (buffer.Buffer, error) {
	if int(idx) < 0 || int(idx) >= len(buffers) {
		return buffer.Buffer{}, errtax.MalformedFile("buffer index %d out of range (have %d)", idx, len(buffers))
	}
	return buffers[idx], nil
}

func writeValidity(w *serial.Writer, bc *bufCollector, v validity.Validity, length int) {
	switch v.Kind() {
	case validity.NonNullable:
		w.WriteUint8(0)
	case validity.AllValid:
		w.WriteUint8(1)
	case validity.AllInvalid:
		w.WriteUint8(2)
	default:
		w.WriteUint8(3)
		bits := make([]byte, (length+7)/8)
		ba := v.Bitmap()
		for i := 0; i < length; i++ {
			if ba.ValueAt(i) {
				bits[i/8] |= 1 << uint(i%8)
			}
		}
		idx := bc.add(buffer.New(bits))
		w.WriteVarint(uint64(idx))
	}
}

func readValidity(r *serial.Reader, length int, buffers []buffer.Buffer) (validity.Validity, error) {
	tag, err := r.ReadUint8()
	if err != nil {
		return validity.Validity{}, err
	}
	switch tag {
	case 0:
		return validity.NewNonNullable(), nil
	case 1:
		return validity.NewAllValid(), nil
	case 2:
		return validity.NewAllInvalid(), nil
	case 3:
		idx, err := r.ReadVarint()
		if err != nil {
			return validity.Validity{}, err
		}
		buf, err := lookupBuffer(buffers, idx)
		if err != nil {
			return validity.Validity{}, err
		}
		return validity.NewBitmap(NewBool(length, buf, validity.NewNonNullable(), false)), nil
	default:
		return validity.Validity{}, errtax.MalformedFile("unknown validity tag %d", tag)
	}
}

func encodeScalar(w *serial.Writer, s scalar.Scalar) {
	w.WriteBool(s.IsNull())
	if s.IsNull() {
		return
	}
	switch s.DType.Kind() {
	case dtype.KindBool:
		w.WriteBool(s.AsBool())
	case dtype.KindPrimitive:
		p := s.DType.Ptype()
		switch {
		case p.IsFloat():
			w.WriteFloat64(s.AsFloat())
		case p.IsSigned():
			w.WriteInt64(s.AsInt())
		default:
			w.WriteUint64(s.AsUint())
		}
	case dtype.KindUtf8:
		w.WriteString(s.AsString())
	case dtype.KindBinary:
		w.WriteBytes(s.AsBytes())
	case dtype.KindStruct:
		for _, fv := range s.AsStructFields() {
			encodeScalar(w, fv)
		}
	}
}

func decodeScalar(r *serial.Reader, dt dtype.DType) (scalar.Scalar, error) {
	isNull, err := r.ReadBool()
	if err != nil {
		return scalar.Scalar{}, err
	}
	if isNull {
		return scalar.Null(dt), nil
	}
	switch dt.Kind() {
	case dtype.KindBool:
		v, err := r.ReadBool()
		return scalar.Bool(v), err
	case dtype.KindPrimitive:
		p := dt.Ptype()
		switch {
		case p.IsFloat():
			v, err := r.ReadFloat64()
			return scalar.Float(p, v), err
		case p.IsSigned():
			v, err := r.ReadInt64()
			return scalar.Int(p, v), err
		default:
			v, err := r.ReadUint64()
			return scalar.Uint(p, v), err
		}
	case dtype.KindUtf8:
		v, err := r.ReadString()
		return scalar.Utf8(v), err
	case dtype.KindBinary:
		v, err := r.ReadBytes()
		return scalar.Binary(append([]byte(nil), v...)), err
	case dtype.KindStruct:
		fieldTypes := dt.FieldTypes()
		fields := make([]scalar.Scalar, len(fieldTypes))
		for i, ft := range fieldTypes {
			fv, err := decodeScalar(r, ft)
			if err != nil {
				return scalar.Scalar{}, err
			}
			fields[i] = fv
		}
		return scalar.Struct(dt, fields), nil
	default:
		return scalar.Scalar{}, errtax.InvalidSerde("scalar: unsupported dtype %s", dt)
	}
}
