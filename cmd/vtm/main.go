package main

import (
	"fmt"
	"os"

	"github.com/nathanvale/vtm/internal/cli"
	"github.com/nathanvale/vtm/internal/tasks"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		// Data-integrity failures (corrupt manifest, cycles, dangling
		// dependencies) exit 2; usage and precondition failures exit 1.
		if tasks.IsDataIntegrityError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
