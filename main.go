package main

import (
	"fmt"
	"os"

	"github.com/driftline/driftline/internal/cli"
)

func main() {
	code, err := cli.Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "driftline:", err)
	}
	os.Exit(code)
}
