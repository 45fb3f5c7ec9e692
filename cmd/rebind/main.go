// rebind rebuilds bind-pose meshes from meshes authored in a deformed pose.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Faultbox/rebind/internal/cli"
	"github.com/Faultbox/rebind/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer logger.Sync()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.GetExitCode(err)
	}
	return cli.ExitSuccess
}
