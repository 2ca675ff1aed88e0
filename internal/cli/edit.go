package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Image   string
	Caption string
	Likes   int64
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <id> [--caption <text>] [--image <ref>] [--likes <n>]",
		Short: "Change a post's caption, image or like count",
		Long: `Change the mutable fields of a local post. Only the flags given are
changed. The creation time, owner and sync state are never touched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Caption, "caption", "", "new caption")
	cmd.Flags().StringVar(&opts.Image, "image", "", "new image reference")
	cmd.Flags().Int64Var(&opts.Likes, "likes", 0, "new like count")

	return cmd
}

func runEdit(opts *EditOptions, arg string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	id, err := parseID(arg)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeUsage, "invalid argument", err)
	}

	s, err := openSession(cmd, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if err := s.projector.LoadAll(ctx).Wait(ctx); err != nil {
		return f.FailOp("failed to load posts", err)
	}

	var found bool
	snap := s.projector.Snapshot()
	for _, e := range snap.Posts {
		if e.Post.ID != id {
			continue
		}
		found = true

		rec := e.Post
		if cmd.Flags().Changed("caption") {
			rec.Caption = opts.Caption
		}
		if cmd.Flags().Changed("image") {
			rec.MediaURL = opts.Image
		}
		if cmd.Flags().Changed("likes") {
			rec.LikeCount = opts.Likes
		}

		if err := s.projector.Modify(ctx, rec).Wait(ctx); err != nil {
			return f.FailOp("failed to update post", err)
		}
		break
	}
	if !found {
		return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("post %d not found", id), nil)
	}

	snap = s.projector.Snapshot()
	for _, e := range snap.Posts {
		if e.Post.ID == id {
			if f.Format == "json" {
				return f.Success(e.Post)
			}
			fmt.Fprintf(f.Writer, "✓ Updated post %d\n", id)
		}
	}
	return nil
}
