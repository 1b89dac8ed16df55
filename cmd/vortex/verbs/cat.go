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
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/juju/gnuflag"

	"github.com/dolthub/vortex/file"
)

// Cat implements `vortex cat <file>`: scan the whole file (honoring
// pruning and projection) and print rows as the reader produces them.
func Cat(args []string) int {
	fs := gnuflag.NewFlagSet("vortex cat", gnuflag.ExitOnError)
	columns := fs.String("columns", "", "comma-separated projection (default: all columns)")
	limit := fs.Int("limit", -1, "stop after printing this many rows (default: unlimited)")
	fs.Parse(true, args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: vortex cat [-columns a,b] [-limit n] <file>")
		return 1
	}

	r, closeFn, err := openFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeFn()

	var projection []string
	if *columns != "" {
		projection = strings.Split(*columns, ",")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := r.Scan(ctx, file.ScanOptions{Projection: projection})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer stream.Close()

	printed := 0
	for {
		batch, ok, err := stream.Next(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if !ok {
			break
		}
		names := batch.Rows.FieldNames()
		for i := 0; i < batch.Rows.Len(); i++ {
			if *limit >= 0 && printed >= *limit {
				return 0
			}
			sv, err := batch.Rows.ScalarAt(i)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			fields := sv.AsStructFields()
			parts := make([]string, len(fields))
			for j, f := range fields {
				parts[j] = names[j] + "=" + f.String()
			}
			fmt.Println(strings.Join(parts, " "))
			printed++
		}
	}
	return 0
}
