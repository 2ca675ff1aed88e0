package projector

import "github.com/roach88/postsync/internal/post"

// reduce applies one event to s. Version is stamped by the caller.
func reduce(s *State, ev event) {
	switch ev.op {
	case OpLoadAll, OpPull:
		reduceRead(s, ev)
	case OpSynchronize:
		reduceSync(s, ev)
	case OpCreate:
		if ev.phase == phaseFulfilled && len(ev.posts) == 1 {
			// Insert replaces a row with the same id; so does the projection.
			if i := s.index(ev.posts[0].ID); i >= 0 {
				s.Posts = append(s.Posts[:i:i], s.Posts[i+1:]...)
			}
			s.Posts = append([]Entry{{Post: ev.posts[0].Clone()}}, s.Posts...)
		}
		reduceWriteFailure(s, ev)
	case OpModify:
		if ev.phase == phaseFulfilled && len(ev.posts) == 1 {
			if i := s.index(ev.posts[0].ID); i >= 0 {
				s.Posts[i].Post = applyMutable(s.Posts[i].Post, ev.posts[0])
			}
		}
		reduceWriteFailure(s, ev)
	case OpRemove:
		if ev.phase == phaseFulfilled {
			if i := s.index(ev.id); i >= 0 {
				s.Posts = append(s.Posts[:i:i], s.Posts[i+1:]...)
			}
		}
		reduceWriteFailure(s, ev)
	case OpLike:
		if ev.phase == phaseFulfilled {
			if i := s.index(ev.id); i >= 0 {
				s.Posts[i].Post.LikeCount++
				s.Posts[i].Liked = true
			}
		}
	case OpDislike:
		if ev.phase == phaseFulfilled {
			if i := s.index(ev.id); i >= 0 {
				if s.Posts[i].Post.LikeCount > 0 {
					s.Posts[i].Post.LikeCount--
				}
				s.Posts[i].Liked = false
			}
		}
	}
}

func reduceRead(s *State, ev event) {
	switch ev.phase {
	case phaseRequested:
		s.Status = Loading
	case phaseFulfilled:
		s.Posts = toEntries(ev.posts)
		s.Status = Succeeded
		s.LastError = ""
	case phaseRejected:
		s.Status = Failed
		s.LastError = ev.err.Error()
	}
}

// reduceSync replaces the collection wholesale on success. A failed sync
// leaves the posts and status as they were.
func reduceSync(s *State, ev event) {
	switch ev.phase {
	case phaseFulfilled:
		s.Posts = toEntries(ev.posts)
		s.Status = Succeeded
		s.LastError = ""
	case phaseRejected:
		s.LastError = ev.err.Error()
	}
}

func reduceWriteFailure(s *State, ev event) {
	if ev.phase == phaseRejected {
		s.LastError = ev.err.Error()
	}
}

// applyMutable copies the fields Update writes from src onto dst, so the
// projection matches the row the store now holds.
func applyMutable(dst, src post.Post) post.Post {
	dst.MediaURL = src.MediaURL
	dst.Caption = src.Caption
	dst.LikeCount = src.LikeCount
	if dst.LikeCount < 0 {
		dst.LikeCount = 0
	}
	dst.Comments = src.Comments.Clone()
	if dst.Comments.IsEmpty() {
		dst.Comments = post.EmptyComments.Clone()
	}
	dst.AuthorName = src.AuthorName
	dst.AuthorAvatarURL = src.AuthorAvatarURL
	dst.Reactions = src.Reactions.Clone()
	if dst.Reactions.IsEmpty() {
		dst.Reactions = post.DefaultReactions.Clone()
	}
	return dst
}
