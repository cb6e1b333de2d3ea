// Command opacli is an interactive command-line client for an
// Opatomic server, built on cmdparse (the human command syntax, spec
// C11) and client (the request/response core, spec C10).
package main

import (
	"fmt"
	"os"

	"github.com/opatomic/opago/cmd/opacli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
