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

// Command vortex is a thin inspection tool over the reader/writer
// package: one verb per subcommand,
// each owning its own flag set. It is not a product surface — it exists
// to exercise the scan/pruning path end to end against a real file.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/dolthub/vortex/cmd/vortex/verbs"
)

var commands = map[string]func([]string) int{
	"stat": verbs.Stat,
	"cat":  verbs.Cat,
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	verb := os.Args[1]
	run, ok := commands[verb]
	if !ok {
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", os.Args[0], verb)
		usage()
		os.Exit(1)
	}
	os.Exit(run(os.Args[2:]))
}

func usage() {
	bold := color.New(color.Bold)
	bold.Fprintln(os.Stderr, "usage: vortex <command> [flags] <file>")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  stat   print schema, layout shape and per-chunk statistics")
	fmt.Fprintln(os.Stderr, "  cat    scan and print rows as they are produced by the reader")
}
