package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/postsync/internal/post"
	"github.com/roach88/postsync/internal/projector"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Steps    []StepOutcome // Flow outcomes for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Steps) > 0 {
		fmt.Fprintf(&buf, "\nFlow:\n")
		for i, step := range e.Steps {
			if step.Error != "" {
				fmt.Fprintf(&buf, "  [%d] %s: %s\n", i+1, step.Op, step.Error)
			} else {
				fmt.Fprintf(&buf, "  [%d] %s\n", i+1, step.Op)
			}
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(r *Result, a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Steps: r.Steps}
	}

	switch a.Type {
	case AssertIDs:
		got := post.IDs(r.State.Records())
		if !slices.Equal(got, a.IDs) {
			return fail(fmt.Sprintf("projection ids %v", a.IDs), fmt.Sprintf("%v", got))
		}

	case AssertStoredIDs:
		got := post.IDs(r.Stored)
		if !slices.Equal(got, a.IDs) {
			return fail(fmt.Sprintf("stored ids %v", a.IDs), fmt.Sprintf("%v", got))
		}

	case AssertPushedIDs:
		req, ok := r.lastPush()
		if !ok {
			return fail(fmt.Sprintf("pushed ids %v", a.IDs), "no POST received")
		}
		if !slices.Equal(req.Pushed, a.IDs) {
			return fail(fmt.Sprintf("pushed ids %v", a.IDs), fmt.Sprintf("%v", req.Pushed))
		}

	case AssertStatus:
		if got := r.State.Status.String(); got != a.Status {
			return fail("status "+a.Status, got)
		}

	case AssertLastError:
		if !strings.Contains(r.State.LastError, a.Contains) {
			return fail(fmt.Sprintf("last error containing %q", a.Contains), fmt.Sprintf("%q", r.State.LastError))
		}

	case AssertNoError:
		if r.State.LastError != "" {
			return fail("no last error", fmt.Sprintf("%q", r.State.LastError))
		}

	case AssertLiked, AssertLikes, AssertSyncState:
		e, ok := entry(r.State, a.ID)
		if !ok {
			return fail(fmt.Sprintf("post %d in projection", a.ID), "not found")
		}
		switch a.Type {
		case AssertLiked:
			if e.Liked != a.Liked {
				return fail(fmt.Sprintf("post %d liked=%t", a.ID, a.Liked), fmt.Sprintf("liked=%t", e.Liked))
			}
		case AssertLikes:
			if e.Post.LikeCount != a.Likes {
				return fail(fmt.Sprintf("post %d likes=%d", a.ID, a.Likes), fmt.Sprintf("likes=%d", e.Post.LikeCount))
			}
		case AssertSyncState:
			if got := e.Post.SyncState.String(); got != a.State {
				return fail(fmt.Sprintf("post %d %s", a.ID, a.State), got)
			}
		}

	case AssertUnchanged:
		digest, err := post.Digest(r.Stored)
		if err != nil {
			return fail("store digest "+r.SeedDigest, err.Error())
		}
		if digest != r.SeedDigest {
			return fail("store digest "+r.SeedDigest, digest)
		}

	case AssertRequests:
		if len(r.Requests) != a.Count {
			return fail(fmt.Sprintf("%d request(s)", a.Count), fmt.Sprintf("%d", len(r.Requests)))
		}

	default:
		return fail("known assertion type", a.Type)
	}

	return nil
}

func entry(s projector.State, id int64) (projector.Entry, bool) {
	for _, e := range s.Posts {
		if e.Post.ID == id {
			return e, true
		}
	}
	return projector.Entry{}, false
}
