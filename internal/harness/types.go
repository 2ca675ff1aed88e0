package harness

import (
	"github.com/roach88/postsync/internal/post"
	"github.com/roach88/postsync/internal/projector"
)

// StepOutcome records how one flow step finished.
type StepOutcome struct {
	Op    string `json:"op"`
	Error string `json:"error,omitempty"`
}

// Request is one request the scenario remote received.
type Request struct {
	Method string  `json:"method"`
	Token  string  `json:"token"`
	Pushed []int64 `json:"pushed,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step behaved as expected and every assertion held.
	Pass bool `json:"pass"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	Steps    []StepOutcome   `json:"steps"`
	State    projector.State `json:"-"`
	Stored   []post.Post     `json:"stored"`
	Requests []Request       `json:"requests"`

	// SeedDigest is the store digest right after seeding.
	SeedDigest string `json:"seed_digest"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Errors:   []string{},
		Steps:    []StepOutcome{},
		Requests: []Request{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep records a finished step.
func (r *Result) AddStep(op string, err error) {
	outcome := StepOutcome{Op: op}
	if err != nil {
		outcome.Error = err.Error()
	}
	r.Steps = append(r.Steps, outcome)
}

// lastPush returns the last POST request, if any.
func (r *Result) lastPush() (Request, bool) {
	for i := len(r.Requests) - 1; i >= 0; i-- {
		if r.Requests[i].Method == "POST" {
			return r.Requests[i], true
		}
	}
	return Request{}, false
}
