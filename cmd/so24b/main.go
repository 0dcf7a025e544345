// cmd/so24b is the command-line interface to the supervisor kernel.
package main

import (
	"context"
	"os"

	"github.com/so24b/kernel/internal/cli"
	"github.com/so24b/kernel/internal/cli/cmd"
)

var commands = []cli.Command{
	cmd.Boot(),
	cmd.Run(),
}

// Entry point.
func main() {
	result :=
		cli.New(context.Background()).
			WithLogger(os.Stderr).
			WithCommands(commands).
			WithHelp(cmd.Help(commands)).
			Execute(os.Args[1:])

	os.Exit(result)
}
