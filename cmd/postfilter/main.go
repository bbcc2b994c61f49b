// postfilter evaluates search filters and blacklists against post metadata,
// as a gRPC service or over JSON-lines input
package main

import (
	"os"

	"github.com/nainya/postfilter/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
