package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/consol-monitoring/check_file/pkg/checkfile"
	"github.com/consol-monitoring/check_file/pkg/checkfile/commands"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	rc := commands.Execute(ctx, checkfile.ModeNetwork, os.Args[1:], os.Stdout)
	cancel()
	os.Exit(rc)
}
