package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Interval time.Duration
	Count    int
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync periodically until interrupted",
		Long: `Run a sync immediately and then every interval until interrupted.

A failed sync is logged and the next one runs at the next tick; the local
collection is left as it was. Each change of the projection is logged.

Example:
  postsync watch --interval 30s
  postsync watch --count 3 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "time between syncs (default from config)")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "stop after this many syncs (0 runs until interrupted)")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	s, err := openSession(cmd, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	interval := opts.Interval
	if interval <= 0 {
		interval = s.cfg.SyncInterval
	}

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	updates, unsubscribe := s.projector.Subscribe()
	defer unsubscribe()

	var synced, failed int
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if err := s.projector.SynchronizeAll(gctx).Wait(gctx); err != nil {
				if gctx.Err() != nil {
					return nil
				}
				failed++
				slog.Warn("sync failed", "error", err)
			} else {
				synced++
			}

			if opts.Count > 0 && synced+failed >= opts.Count {
				return nil
			}

			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case snap := <-updates:
				slog.Debug("projection changed",
					"version", snap.Version,
					"status", snap.Status.String(),
					"posts", len(snap.Posts),
				)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return f.FailOp("watch failed", err)
	}

	result := map[string]int{"synced": synced, "failed": failed}
	if f.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "✓ Watch stopped: %d sync(s) succeeded, %d failed\n", synced, failed)
	return nil
}
