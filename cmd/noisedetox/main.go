// Noise Detox: personal noise exposure and wellbeing tracker.
//
// The same binary runs the MCP server and a small maintenance CLI over the
// same data directory.
//
// Usage:
//
//	noisedetox serve            # Start MCP server (stdio transport)
//	noisedetox export --out .   # Write noise-detox-data-<date>.json
//	noisedetox import FILE      # Restore sections from an export file
//	noisedetox stats --days 14  # Print the summary report
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
