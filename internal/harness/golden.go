package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/postsync/internal/post"
)

// Snapshot renders the final projection and remote traffic of a result as
// canonical JSON.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	posts := make([]any, len(result.State.Posts))
	for i, e := range result.State.Posts {
		posts[i] = map[string]any{
			"liked": e.Liked,
			"post":  e.Post,
		}
	}

	requests := make([]any, len(result.Requests))
	for i, req := range result.Requests {
		m := map[string]any{
			"method": req.Method,
			"token":  req.Token,
		}
		if req.Pushed != nil {
			m["pushed"] = req.Pushed
		}
		requests[i] = m
	}

	return post.MarshalCanonical(map[string]any{
		"scenario":   scenarioName,
		"status":     result.State.Status.String(),
		"last_error": result.State.LastError,
		"version":    result.State.Version,
		"posts":      posts,
		"requests":   requests,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshot)

	return nil
}
