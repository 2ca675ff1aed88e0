package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/postsync/internal/post"
)

// Scenario defines a projector flow and what it must leave behind.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SyncToken is sent as the sync token header on every remote request.
	// If empty, the fixed token generator's default is used.
	SyncToken string `yaml:"sync_token,omitempty"`

	// Seed is written to the store before the projector starts. Posts without
	// a timestamp are stamped by the store clock in order.
	Seed []PostSpec `yaml:"seed,omitempty"`

	// Remote configures the HTTP endpoint the sync client talks to.
	Remote *RemoteSpec `yaml:"remote,omitempty"`

	// Flow is dispatched to the projector one step at a time.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final projection, store and remote traffic.
	Assertions []Assertion `yaml:"assertions"`
}

// PostSpec is a post as written in a scenario. Unset fields take the store's
// defaults.
type PostSpec struct {
	ID        int64  `yaml:"id"`
	UserID    int64  `yaml:"user_id,omitempty"`
	Title     string `yaml:"title,omitempty"`
	Body      string `yaml:"body,omitempty"`
	Image     string `yaml:"image,omitempty"`
	Caption   string `yaml:"caption,omitempty"`
	Likes     int64  `yaml:"likes,omitempty"`
	Username  string `yaml:"username,omitempty"`
	Timestamp string `yaml:"timestamp,omitempty"`
	Synced    bool   `yaml:"synced,omitempty"`
}

// Post converts the scenario post to a record.
func (s PostSpec) Post() (post.Post, error) {
	p := post.Post{
		ID:         s.ID,
		OwnerID:    s.UserID,
		Title:      s.Title,
		Body:       s.Body,
		MediaURL:   s.Image,
		Caption:    s.Caption,
		LikeCount:  s.Likes,
		AuthorName: s.Username,
	}
	if s.Synced {
		p.SyncState = post.Synced
	}
	if s.Timestamp != "" {
		ts, err := post.ParseTimestamp(s.Timestamp)
		if err != nil {
			return post.Post{}, err
		}
		p.CreatedAt = ts
	}
	return p, nil
}

func toPosts(specs []PostSpec) ([]post.Post, error) {
	out := make([]post.Post, 0, len(specs))
	for _, s := range specs {
		p, err := s.Post()
		if err != nil {
			return nil, fmt.Errorf("post %d: %w", s.ID, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// RemoteSpec configures the scenario's remote.
//
// With Serve set, a reference remote backed by its own in-memory store holds
// Posts and merges whatever is pushed. Otherwise every request is answered
// with Status (default 200) and either Body verbatim or Posts as JSON.
type RemoteSpec struct {
	Serve  bool       `yaml:"serve,omitempty"`
	Status int        `yaml:"status,omitempty"`
	Body   string     `yaml:"body,omitempty"`
	Posts  []PostSpec `yaml:"posts,omitempty"`
}

// FlowStep is one projector operation.
type FlowStep struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// ID targets modify, remove, like and dislike.
	ID int64 `yaml:"id,omitempty"`

	// Post is the record for create.
	Post *PostSpec `yaml:"post,omitempty"`

	// Image, Caption and Likes feed submit and modify. Unset fields are left
	// as they are on modify.
	Image   *string `yaml:"image,omitempty"`
	Caption *string `yaml:"caption,omitempty"`
	Likes   *int64  `yaml:"likes,omitempty"`

	// ExpectError, when set, requires the step to fail with an error
	// containing this text.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Flow operations.
const (
	OpLoad    = "load"
	OpCreate  = "create"
	OpSubmit  = "submit"
	OpModify  = "modify"
	OpRemove  = "remove"
	OpLike    = "like"
	OpDislike = "dislike"
	OpSync    = "sync"
	OpPull    = "pull"
)

// Assertion validates the outcome of a scenario.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// IDs is the expected id list (ids, stored_ids, pushed_ids).
	IDs []int64 `yaml:"ids,omitempty"`

	// ID selects the post for liked, likes and sync_state.
	ID int64 `yaml:"id,omitempty"`

	Status   string `yaml:"status,omitempty"`
	Contains string `yaml:"contains,omitempty"`
	Liked    bool   `yaml:"liked,omitempty"`
	Likes    int64  `yaml:"likes,omitempty"`
	State    string `yaml:"state,omitempty"`
	Count    int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertIDs       = "ids"
	AssertStoredIDs = "stored_ids"
	AssertStatus    = "status"
	AssertLastError = "last_error"
	AssertNoError   = "no_error"
	AssertLiked     = "liked"
	AssertLikes     = "likes"
	AssertSyncState = "sync_state"
	AssertUnchanged = "unchanged"
	AssertRequests  = "requests"
	AssertPushedIDs = "pushed_ids"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks required fields and per-step arguments.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow must have at least one step")
	}

	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}

	return nil
}

func validateStep(step FlowStep) error {
	switch step.Op {
	case OpLoad, OpSync, OpPull:
		return nil
	case OpCreate:
		if step.Post == nil {
			return fmt.Errorf("create requires a post")
		}
		return nil
	case OpSubmit:
		return nil
	case OpModify, OpRemove, OpLike, OpDislike:
		if step.ID == 0 {
			return fmt.Errorf("%s requires an id", step.Op)
		}
		return nil
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertIDs, AssertStoredIDs, AssertPushedIDs, AssertNoError, AssertUnchanged, AssertRequests:
		return nil
	case AssertStatus:
		if a.Status == "" {
			return fmt.Errorf("status requires a status")
		}
		return nil
	case AssertLastError:
		if a.Contains == "" {
			return fmt.Errorf("last_error requires contains")
		}
		return nil
	case AssertLiked, AssertLikes:
		if a.ID == 0 {
			return fmt.Errorf("%s requires an id", a.Type)
		}
		return nil
	case AssertSyncState:
		if a.ID == 0 {
			return fmt.Errorf("sync_state requires an id")
		}
		if a.State != post.Pending.String() && a.State != post.Synced.String() {
			return fmt.Errorf("sync_state must be pending or synced, got %q", a.State)
		}
		return nil
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}
