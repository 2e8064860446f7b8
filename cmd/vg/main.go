// vg is the Vigil CLI for monitoring worker liveness.
package main

import (
	"os"

	"github.com/steveyegge/vigil/internal/cmd"
)

// main is the entry point for the Vigil CLI. It delegates all command
// parsing and execution to cmd.Execute() and exits with its return code.
func main() {
	os.Exit(cmd.Execute())
}
