// Command ruserwation serves the restaurant's public reservation page and its
// admin area.
//
//	ruserwation                    run in the foreground
//	ruserwation service <command>  manage the OS service
package main

import (
	"context"
	"fmt"
	"os"

	"ruserwation/core"
)

func main() {
	handled, err := HandleServiceCommand(os.Args, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(core.ExitCodeError)
	}
	if handled {
		return
	}

	ranAsService, err := RunAsService()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(core.ExitCodeError)
	}
	if ranAsService {
		return
	}

	os.Exit(run(context.Background(), os.Stdout))
}
