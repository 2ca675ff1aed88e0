package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the local database",
		Long: `Create the posts table in the local database if it does not exist.

Every other command initializes the database on first use, so running init is
optional. Running it again is harmless.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	s, err := openSession(cmd, opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.Init(cmd.Context()); err != nil {
		return f.FailOp("failed to initialize database", err)
	}

	if f.Format == "json" {
		return f.Success(map[string]string{"database": s.cfg.Database})
	}
	fmt.Fprintf(f.Writer, "✓ Initialized %s\n", s.cfg.Database)
	return nil
}
