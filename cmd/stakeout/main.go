package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"stakeout/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	opts, err := parseArgs(args, errOut)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitCodeSuccess
		}
		var startup *startupError
		if errors.As(err, &startup) {
			fmt.Fprintln(errOut, startup.Message)
			return startup.Code
		}
		return exitCodeUsage
	}
	if opts.ShowVersion {
		if version.Version == "" || version.Version == "dev" {
			fmt.Fprintln(out, "stakeout dev")
		} else {
			fmt.Fprintf(out, "stakeout version %s\n", version.Get())
		}
		return exitCodeSuccess
	}
	return runWatch(opts, out, errOut)
}
