// Command clankers is the Clankers daemon and CLI: run `clankers daemon` to
// serve plugin connections, or `clankers query`/`clankers config` to inspect
// and manage a local install.
package main

import (
	"fmt"
	"os"

	"github.com/clankers-dev/clankers/internal/cli"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cli.Version = version
	cli.BuildTime = buildTime

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
