package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/demystify/internal/debug"
	"github.com/standardbeagle/demystify/internal/watch"
	"github.com/standardbeagle/demystify/pkg/pathutil"
)

func watchCommand(c *cli.Context) error {
	dir := c.String("dir")
	cfg, err := loadConfigWithOverrides(c, dir)
	if err != nil {
		return err
	}

	w, err := watch.New(dir, cfg)
	if err != nil {
		return debug.Fatal("failed to create watcher: %v\n", err)
	}
	w.OnRendered(func(r watch.Result) {
		if r.Err == nil {
			fmt.Fprintf(c.App.Writer, "%s -> %s (%d exception(s))\n",
				pathutil.ToRelative(r.Source, w.Root()), pathutil.ToRelative(r.Output, w.Root()), r.Exceptions)
		}
	})
	if err := w.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return waitAndStop(ctx, w)
}

func waitAndStop(ctx context.Context, w *watch.Watcher) error {
	<-ctx.Done()
	log.Printf("Received shutdown signal")

	stats := w.Stats()
	if err := w.Stop(); err != nil {
		return err
	}
	log.Printf("Rendered %d dump(s), %d failure(s)", stats.Rendered, stats.ErrorCount)
	return nil
}
