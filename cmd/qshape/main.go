// Command qshape translates entity queries with output shapes into SQL and
// client-side materialization plans.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/qshape/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
