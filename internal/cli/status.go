package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// StatusResult is the JSON payload of the status command.
type StatusResult struct {
	Database string `json:"database"`
	Endpoint string `json:"endpoint"`
	Posts    int    `json:"posts"`
	Pending  int    `json:"pending"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show how many posts are stored and how many await sync",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	s, err := openSession(cmd, opts, f)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	total, err := s.store.Count(ctx)
	if err != nil {
		return f.FailOp("failed to count posts", err)
	}
	pending, err := s.store.CountPending(ctx)
	if err != nil {
		return f.FailOp("failed to count pending posts", err)
	}

	result := StatusResult{
		Database: s.cfg.Database,
		Endpoint: s.cfg.Endpoint,
		Posts:    total,
		Pending:  pending,
	}
	if f.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "Database: %s\n", result.Database)
	fmt.Fprintf(f.Writer, "Endpoint: %s\n", result.Endpoint)
	fmt.Fprintf(f.Writer, "Posts:    %d (%d pending sync)\n", result.Posts, result.Pending)
	return nil
}
