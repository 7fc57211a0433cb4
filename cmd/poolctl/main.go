// Command poolctl runs and inspects a dynapool worker pool from a config
// file. See internal/cli for the command tree.
package main

import (
	"fmt"
	"os"

	"github.com/ChuLiYu/dynapool/internal/cli"
)

func main() {
	if err := cli.BuildCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
