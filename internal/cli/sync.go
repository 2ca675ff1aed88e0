package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// SyncResult is the JSON payload of the sync command.
type SyncResult struct {
	Endpoint string `json:"endpoint"`
	Pushed   int    `json:"pushed"`
	PostList
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push local posts and replace them with the remote collection",
		Long: `Send the whole local collection to the remote endpoint in one POST and
replace the local collection with the remote's answer.

This is a full replace, not a merge: a local post the remote does not return
is removed locally. On failure nothing changes locally.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(rootOpts, cmd)
		},
	}
}

func runSync(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	s, err := openSession(cmd, opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	pushed, err := s.store.Count(ctx)
	if err != nil {
		return f.FailOp("failed to count posts", err)
	}

	f.VerboseLog("Pushing %d post(s) to %s", pushed, s.cfg.Endpoint)
	task := s.projector.SynchronizeAll(ctx)
	if err := task.Wait(ctx); err != nil {
		return f.FailOp("sync failed", err)
	}

	result := SyncResult{
		Endpoint: s.cfg.Endpoint,
		Pushed:   pushed,
		PostList: newPostList(task.Posts()),
	}
	if f.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "✓ Synced with %s: pushed %d, received %d\n",
		result.Endpoint, result.Pushed, result.Count)
	return nil
}
