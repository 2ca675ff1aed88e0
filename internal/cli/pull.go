package cli

import (
	"github.com/spf13/cobra"
)

// NewPullCommand creates the pull command.
func NewPullCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Show the remote collection without changing local posts",
		Long: `Fetch the remote collection with a GET and print it. Nothing is pushed and
the local database is not modified.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPull(rootOpts, cmd)
		},
	}
}

func runPull(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	s, err := openSession(cmd, opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	task := s.projector.PullRemote(ctx)
	if err := task.Wait(ctx); err != nil {
		return f.FailOp("pull failed", err)
	}

	if f.Format == "json" {
		return f.Success(newPostList(task.Posts()))
	}
	writePostTable(f.Writer, entriesOf(task.Posts()))
	return nil
}
