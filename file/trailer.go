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

package file

import (
	"encoding/binary"

	"github.com/dolthub/vortex/errtax"
)

// trailer is the fixed 20-byte record at file_end-20.
type trailer struct {
	SchemaOffset uint64
	FooterOffset uint64
}

func encodeTrailer(t trailer) []byte {
	b := make([]byte, TrailerSize)
	binary.LittleEndian.PutUint64(b[0:8], t.SchemaOffset)
	binary.LittleEndian.PutUint64(b[8:16], t.FooterOffset)
	copy(b[16:20], Magic)
	return b
}

func decodeTrailer(b []byte) (trailer, error) {
	if len(b) != TrailerSize {
		return trailer{}, errtax.MalformedFile("trailer: expected %d bytes, got %d", TrailerSize, len(b))
	}
	if string(b[16:20]) != Magic {
		return trailer{}, errtax.MalformedFile("bad magic %q", b[16:20])
	}
	return trailer{
		SchemaOffset: binary.LittleEndian.Uint64(b[0:8]),
		FooterOffset: binary.LittleEndian.Uint64(b[8:16]),
	}, nil
}
