package main

import (
	"fmt"
	"os"

	"github.com/noah-isme/akademik-api/internal/cli"
)

func main() {
	if err := cli.NewRootCmd(cli.OpenFromConfig).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
