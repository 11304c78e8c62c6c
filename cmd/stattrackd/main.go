package main

import (
	"fmt"
	"os"

	"github.com/ymohit1603/StatTrack-Backend-sub000/cli"
)

func main() {
	var rootCmd cli.RootCmd
	err := rootCmd.Command().Invoke().WithOS().Run()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
