package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:           "reset --yes",
		Short:         "Delete every local post",
		Long:          `Delete every post from the local database, including ones not yet synced.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(rootOpts, yes, cmd)
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting every local post")

	return cmd
}

func runReset(opts *RootOptions, yes bool, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if !yes {
		return f.Fail(ExitCommandError, ErrCodeUsage, "refusing to reset without --yes", nil)
	}

	s, err := openSession(cmd, opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	removed, err := s.store.Count(ctx)
	if err != nil {
		return f.FailOp("failed to count posts", err)
	}
	if err := s.store.Clear(ctx); err != nil {
		return f.FailOp("failed to reset database", err)
	}

	if f.Format == "json" {
		return f.Success(map[string]int{"removed": removed})
	}
	fmt.Fprintf(f.Writer, "✓ Removed %d post(s)\n", removed)
	return nil
}
