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

// bits.go holds the LSB-first bit-packing primitives shared by
// BitPacked and ALP-RD's right-part packing.
//
// This is a contiguous bitstream over the whole logical length, not a
// transposed per-1024-row "fastlanes" SIMD layout: the transposition is
// a decode-throughput trick that doesn't change which values compress
// or how big the encoding is, and every decode path here is scalar, so
// a plain contiguous packing keeps the same size, width, and exception
// behavior.
package array

// bitpackWriteWidth returns the number of bytes needed to hold n values
// packed at width bits each.
func bitpackWriteWidth(n, width int) int {
	return (n*width + 7) / 8
}

// bitpackWrite writes the low `width` bits of v starting at bit offset
// bitPos within buf.
func bitpackWrite(buf []byte, bitPos, width int, v uint64) {
	for b := 0; b < width; b++ {
		if v&(1<<uint(b)) == 0 {
			continue
		}
		pos := bitPos + b
		buf[pos/8] |= 1 << uint(pos%8)
	}
}

// bitpackRead reads `width` bits starting at bit offset bitPos within buf.
func bitpackRead(buf []byte, bitPos, width int) uint64 {
	var v uint64
	for b := 0; b < width; b++ {
		pos := bitPos + b
		if buf[pos/8]&(1<<uint(pos%8)) != 0 {
			v |= 1 << uint(b)
		}
	}
	return v
}

// bitsNeeded returns the number of bits required to represent v (0 for
// v==0), used by BitPacked's width histogram, ALP's exponent search and
// ALP-RD's dictionary fitting.
func bitsNeeded(v uint64) int {
	n := 0
	for v != 0 {
		n++
		v >>= 1
	}
	return n
}
