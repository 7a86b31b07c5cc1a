// Scandir lists directories and walks directory trees.
//
// Examples:
//
//	scandir ls -l .
//	scandir walk --exclude .git --format json ~/src
//	scandir bench --generate 100k --fanout 20 --depth 3 /tmp/tree
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/calvinalkan/scandir/internal/cli"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(3)
		}
	}()

	os.Exit(cli.Execute())
}
