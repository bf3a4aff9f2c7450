package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shenikar/incident_dashboard/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(nil).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
