// linkctl queries a linker from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/OFFIS-RIT/kiwi-linker/internal/bootstrap"
	"github.com/OFFIS-RIT/kiwi-linker/internal/util"
)

func main() {
	util.LoadEnv()

	if err := rootCmd(bootstrap.OpenLinker).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
