package harness

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/postsync/internal/post"
	"github.com/roach88/postsync/internal/projector"
	"github.com/roach88/postsync/internal/store"
	"github.com/roach88/postsync/internal/syncer"
	"github.com/roach88/postsync/internal/testutil"
)

// stepTimeout bounds how long a single flow step may take.
const stepTimeout = 10 * time.Second

// Identity is the actor every scenario composes posts as.
var Identity = post.Identity{ID: 1, Username: post.DefaultAuthorName}

// Harness is the test execution engine.
// It runs scenarios with deterministic clocks and sync tokens.
type Harness struct {
	projector *projector.Projector
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create a fresh in-memory store and seed it
// 2. Start the scenario remote and a projector wired to it
// 3. Dispatch each flow step and wait for it
// 4. Capture the projection, the store and the remote traffic
// 5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	storeClock := testutil.NewStepClock(time.Second)
	st, err := store.Open(":memory:", store.WithClock(storeClock.Now))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	seedDigest, err := seed(ctx, st, scenario.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	rr, err := newRecordingRemote(ctx, scenario.Remote)
	if err != nil {
		return nil, err
	}
	defer rr.Close()

	client := syncer.NewClient(rr.URL(),
		syncer.WithTimeout(stepTimeout),
		syncer.WithTokenGenerator(testutil.NewFixedTokenGenerator(scenario.SyncToken)),
	)

	// Draft ids are Unix milliseconds, so step the draft clock by one.
	draftClock := testutil.NewStepClock(time.Millisecond)
	p := projector.New(st, syncer.NewCoordinator(st, client),
		projector.WithIdentity(post.StaticIdentity(Identity)),
		projector.WithNow(draftClock.Now),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(runCtx) }()

	h := &Harness{projector: p}
	result := NewResult()
	result.SeedDigest = seedDigest

	for i, step := range scenario.Flow {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			p.Stop()
			<-done
			return nil, fmt.Errorf("failed to execute flow: %w", err)
		}
	}

	p.Stop()
	if err := <-done; err != nil {
		return nil, fmt.Errorf("projector stopped with error: %w", err)
	}

	result.State = p.Snapshot()
	if result.Stored, err = st.FetchAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to read final store: %w", err)
	}
	result.Requests = rr.Requests()

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

func seed(ctx context.Context, st *store.Store, specs []PostSpec) (string, error) {
	posts, err := toPosts(specs)
	if err != nil {
		return "", err
	}
	if err := st.Init(ctx); err != nil {
		return "", err
	}
	if err := st.Upsert(ctx, posts); err != nil {
		return "", err
	}
	stored, err := st.FetchAll(ctx)
	if err != nil {
		return "", err
	}
	return post.Digest(stored)
}

// executeStep dispatches one step and checks its outcome against
// ExpectError. Only malformed steps return an error; unexpected outcomes are
// recorded on the result.
func (h *Harness) executeStep(ctx context.Context, i int, step FlowStep, result *Result) error {
	ctx, cancel := context.WithTimeout(ctx, stepTimeout)
	defer cancel()

	task, err := h.dispatch(ctx, step)
	if err != nil {
		return fmt.Errorf("flow step %d: %w", i, err)
	}

	waitErr := task.Wait(ctx)
	if ctx.Err() != nil {
		return fmt.Errorf("flow step %d (%s): %w", i, step.Op, ctx.Err())
	}
	result.AddStep(step.Op, waitErr)

	switch {
	case step.ExpectError == "" && waitErr != nil:
		result.AddError(fmt.Sprintf("step %d (%s): unexpected error: %v", i, step.Op, waitErr))
	case step.ExpectError != "" && waitErr == nil:
		result.AddError(fmt.Sprintf("step %d (%s): expected error containing %q, got success",
			i, step.Op, step.ExpectError))
	case step.ExpectError != "" && !strings.Contains(waitErr.Error(), step.ExpectError):
		result.AddError(fmt.Sprintf("step %d (%s): expected error containing %q, got %q",
			i, step.Op, step.ExpectError, waitErr.Error()))
	}
	return nil
}

func (h *Harness) dispatch(ctx context.Context, step FlowStep) (*projector.Task, error) {
	p := h.projector

	switch step.Op {
	case OpLoad:
		return p.LoadAll(ctx), nil
	case OpCreate:
		rec, err := step.Post.Post()
		if err != nil {
			return nil, err
		}
		return p.Create(ctx, rec), nil
	case OpSubmit:
		return p.Submit(ctx, post.Draft{MediaURL: deref(step.Image), Caption: deref(step.Caption)}), nil
	case OpModify:
		return p.Modify(ctx, h.modified(step)), nil
	case OpRemove:
		return p.Remove(ctx, step.ID), nil
	case OpLike:
		return p.Like(ctx, step.ID), nil
	case OpDislike:
		return p.Dislike(ctx, step.ID), nil
	case OpSync:
		return p.SynchronizeAll(ctx), nil
	case OpPull:
		return p.PullRemote(ctx), nil
	default:
		return nil, fmt.Errorf("unknown op %q", step.Op)
	}
}

// modified applies the step's fields to the shown post with step.ID, or to
// a bare record when the projection does not hold that id.
func (h *Harness) modified(step FlowStep) post.Post {
	rec := post.Post{ID: step.ID}
	for _, e := range h.projector.Snapshot().Posts {
		if e.Post.ID == step.ID {
			rec = e.Post
			break
		}
	}
	if step.Image != nil {
		rec.MediaURL = *step.Image
	}
	if step.Caption != nil {
		rec.Caption = *step.Caption
	}
	if step.Likes != nil {
		rec.LikeCount = *step.Likes
	}
	return rec
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
