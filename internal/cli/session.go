package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/postsync/internal/config"
	"github.com/roach88/postsync/internal/post"
	"github.com/roach88/postsync/internal/projector"
	"github.com/roach88/postsync/internal/store"
	"github.com/roach88/postsync/internal/syncer"
)

// session wires one command's store, sync client and running projector.
type session struct {
	cfg       config.Config
	store     *store.Store
	client    *syncer.Client
	projector *projector.Projector

	cancel context.CancelFunc
	done   chan error
}

// openSession loads config, opens the database and starts the projector.
// Failures are reported through f and returned as ExitErrors.
func openSession(cmd *cobra.Command, opts *RootOptions, f *OutputFormatter) (*session, error) {
	cfg, err := opts.LoadConfig()
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}

	f.VerboseLog("Opening database %s", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStorage, "failed to open database", err)
	}

	clientOpts := cfg.ClientOptions()
	if opts.Tokens != nil {
		clientOpts = append(clientOpts, syncer.WithTokenGenerator(opts.Tokens))
	}
	client := syncer.NewClient(cfg.Endpoint, clientOpts...)

	projOpts := []projector.Option{projector.WithIdentity(post.StaticIdentity(cfg.Identity))}
	if opts.Now != nil {
		projOpts = append(projOpts, projector.WithNow(opts.Now))
	}
	p := projector.New(st, syncer.NewCoordinator(st, client), projOpts...)

	ctx, cancel := context.WithCancel(cmd.Context())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	return &session{
		cfg:       cfg,
		store:     st,
		client:    client,
		projector: p,
		cancel:    cancel,
		done:      done,
	}, nil
}

// Close stops the projector after it has applied every queued event, then
// closes the database.
func (s *session) Close() {
	s.projector.Stop()
	<-s.done
	s.cancel()
	if err := s.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
