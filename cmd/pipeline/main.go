// Command pipeline runs the startup-analytics batch pipeline against a
// sharded MongoDB cluster: ingest raw feeds, clean and deduplicate, and
// aggregate per-sector metrics. Business logic lives in internal packages;
// this binary only wires dependencies and maps subcommands to stages.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
