package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/jlrickert/contammap/pkg/cli"
)

func main() {
	ctx := context.Background()

	rt, err := toolkit.NewRuntime()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	exitCode, _ := cli.Run(ctx, rt, os.Args[1:])
	os.Exit(exitCode)
}
