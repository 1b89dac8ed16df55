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

package verbs

import (
	"os"

	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/file"
)

// openFile opens path as a vortex container and returns a Reader plus a
// function closing the underlying OS file.
func openFile(path string) (*file.Reader, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errtax.IoError(err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, errtax.IoError(err)
	}
	r, err := file.Open(f, info.Size())
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return r, func() { f.Close() }, nil
}
