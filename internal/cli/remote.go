package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/postsync/internal/remote"
	"github.com/roach88/postsync/internal/store"
)

// RemoteOptions holds flags for the remote command.
type RemoteOptions struct {
	*RootOptions
	Listen   string
	RemoteDB string
}

// NewRemoteCommand creates the remote command.
func NewRemoteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemoteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Serve a remote endpoint for other postsync clients",
		Long: `Serve the authoritative side of the sync protocol over HTTP.

POST /posts merges the posted collection into the server's own database and
answers with every post it holds. GET /posts returns the collection.

Example:
  postsync remote --listen 127.0.0.1:8080 --remote-db server.db
  postsync sync --endpoint http://127.0.0.1:8080/posts`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemote(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "address to listen on (default from config)")
	cmd.Flags().StringVar(&opts.RemoteDB, "remote-db", "postsync-remote.db", "path to the server's SQLite database")

	return cmd
}

func runRemote(opts *RemoteOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := opts.LoadConfig()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	listen := opts.Listen
	if listen == "" {
		listen = cfg.Listen
	}

	st, err := store.Open(opts.RemoteDB)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStorage, "failed to open database", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if f.Format != "json" {
		fmt.Fprintf(f.Writer, "Serving %s on http://%s/posts\n", opts.RemoteDB, listen)
	}
	if err := remote.NewServer(st).ListenAndServe(ctx, listen); err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, "remote server failed", err)
	}

	if f.Format == "json" {
		return f.Success(map[string]string{"listen": listen, "database": opts.RemoteDB})
	}
	return nil
}
