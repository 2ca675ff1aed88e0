package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/postsync/internal/post"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Image   string
	Caption string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add --image <ref> [--caption <text>]",
		Short: "Create a post",
		Long: `Create a post from an image reference and a caption.

The post is stored locally and marked pending until the next sync. Its id is
the current time in milliseconds and its author is the configured identity.

Example:
  postsync add --image file:///photos/beach.jpg --caption "Low tide"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Image, "image", "", "image reference (required)")
	cmd.Flags().StringVar(&opts.Caption, "caption", "", "caption text")

	return cmd
}

func runAdd(opts *AddOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	s, err := openSession(cmd, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	task := s.projector.Submit(cmd.Context(), post.Draft{MediaURL: opts.Image, Caption: opts.Caption})
	if err := task.Wait(cmd.Context()); err != nil {
		return f.FailOp("failed to create post", err)
	}

	created := task.Posts()[0]
	if f.Format == "json" {
		return f.Success(created)
	}
	fmt.Fprintf(f.Writer, "✓ Created post %d (pending sync)\n", created.ID)
	return nil
}
