package cli

import (
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List local posts, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	s, err := openSession(cmd, opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if err := s.projector.LoadAll(ctx).Wait(ctx); err != nil {
		return f.FailOp("failed to load posts", err)
	}

	snap := s.projector.Snapshot()
	if f.Format == "json" {
		return f.Success(newPostList(snap.Records()))
	}
	writePostTable(f.Writer, snap.Posts)
	return nil
}
