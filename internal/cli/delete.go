package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a local post",
		Long:          `Delete a post from the local database. Deleting an unknown id succeeds.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args[0], cmd)
		},
	}
}

func runDelete(opts *RootOptions, arg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	id, err := parseID(arg)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeUsage, "invalid argument", err)
	}

	s, err := openSession(cmd, opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if err := s.projector.Remove(ctx, id).Wait(ctx); err != nil {
		return f.FailOp("failed to delete post", err)
	}

	if f.Format == "json" {
		return f.Success(map[string]int64{"deleted": id})
	}
	fmt.Fprintf(f.Writer, "✓ Deleted post %d\n", id)
	return nil
}
