package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/roach88/postsync/internal/post"
	"github.com/roach88/postsync/internal/projector"
)

// parseID parses a post id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid post id %q", arg)
	}
	return id, nil
}

// PostList is the JSON payload for commands that print a collection.
type PostList struct {
	Count int         `json:"count"`
	Posts []post.Post `json:"posts"`
}

func newPostList(posts []post.Post) PostList {
	if posts == nil {
		posts = []post.Post{}
	}
	return PostList{Count: len(posts), Posts: posts}
}

// writePostTable prints posts as aligned columns.
func writePostTable(w io.Writer, entries []projector.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No posts.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tLIKES\tAUTHOR\tCREATED\tCAPTION")
	for _, e := range entries {
		p := e.Post
		created := "-"
		if !p.CreatedAt.IsZero() {
			created = p.CreatedAt.Format("2006-01-02 15:04:05")
		}
		likes := strconv.FormatInt(p.LikeCount, 10)
		if e.Liked {
			likes += "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.SyncState, likes, p.AuthorName, created, oneLine(p.Caption, 40))
	}
	tw.Flush()
}

func entriesOf(posts []post.Post) []projector.Entry {
	out := make([]projector.Entry, len(posts))
	for i, p := range posts {
		out[i] = projector.Entry{Post: p}
	}
	return out
}

// oneLine flattens s and caps it at n runes.
func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
