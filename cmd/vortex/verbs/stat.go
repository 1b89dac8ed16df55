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

// Package verbs implements the vortex command's subcommands.
package verbs

import (
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/juju/gnuflag"

	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
)

// Stat implements `vortex stat <file>`: schema, per-column chunk count
// and byte size, and the statistics row recorded for every chunk.
func Stat(args []string) int {
	fs := gnuflag.NewFlagSet("vortex stat", gnuflag.ExitOnError)
	fs.Parse(true, args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: vortex stat <file>")
		return 1
	}

	r, closeFn, err := openFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeFn()

	heading := color.New(color.FgCyan, color.Bold)
	schema := r.Schema()
	heading.Println("schema")
	fmt.Println(" ", schema.String())

	heading.Println("columns")
	for _, name := range schema.FieldNames() {
		summary, err := r.ColumnStats(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", name, err)
			continue
		}
		fmt.Printf("  %-20s chunks=%-6d bytes=%s\n", name, summary.NumChunks,
			humanize.Bytes(uint64(summary.Bytes)))
		for j, row := range summary.ChunkStats {
			fmt.Printf("    chunk %-4d %s\n", j, formatRow(row))
		}
	}
	return 0
}

func formatRow(row map[stats.Stat]scalar.Scalar) string {
	var keys []int
	for st := range row {
		keys = append(keys, int(st))
	}
	sort.Ints(keys)
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		st := stats.Stat(k)
		s += st.String() + "=" + row[st].String()
	}
	return s
}
