// Package main provides the n1browse command: an autonomous browser agent
// that drives a remote Chromium with the Yutori n1 model.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, defaultDeps(), os.Args[1:])
	stop()
	os.Exit(code)
}
