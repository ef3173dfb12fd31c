package main

import (
	"errors"
	"fmt"
	"os"
)

// errQuiet marks failures that were already reported to the user.
var errQuiet = errors.New("quiet failure")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errQuiet) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
