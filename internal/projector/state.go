package projector

import "github.com/roach88/postsync/internal/post"

// Status is the projection's read status.
type Status int

const (
	Idle Status = iota
	Loading
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Entry is a post as shown, plus the transient liked flag.
type Entry struct {
	Post  post.Post
	Liked bool
}

// State is the in-memory projection.
type State struct {
	Status    Status
	Posts     []Entry
	LastError string

	// Version increases by one for every applied event.
	Version int64
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Posts = make([]Entry, len(s.Posts))
	for i, e := range s.Posts {
		out.Posts[i] = Entry{Post: e.Post.Clone(), Liked: e.Liked}
	}
	return out
}

// Records returns the posts of the projection in display order.
func (s State) Records() []post.Post {
	out := make([]post.Post, len(s.Posts))
	for i, e := range s.Posts {
		out[i] = e.Post.Clone()
	}
	return out
}

// index returns the position of the entry with id, or -1.
func (s *State) index(id int64) int {
	for i := range s.Posts {
		if s.Posts[i].Post.ID == id {
			return i
		}
	}
	return -1
}

func toEntries(posts []post.Post) []Entry {
	out := make([]Entry, len(posts))
	for i, p := range posts {
		out[i] = Entry{Post: p.Clone()}
	}
	return out
}
