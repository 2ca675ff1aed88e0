package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/postsync/internal/post"
)

//go:embed post.cue
var postSchema string

// Validator checks posts against #Post.
//
// Thread-safety: a cue.Context is not safe for concurrent use, so Validate
// serializes callers with a mutex.
type Validator struct {
	mu  sync.Mutex
	ctx *cue.Context
	def cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(postSchema, cue.Filename("post.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile post schema: %w", err)
	}

	def := v.LookupPath(cue.ParsePath("#Post"))
	if !def.Exists() {
		return nil, fmt.Errorf("compile post schema: #Post not defined")
	}

	return &Validator{ctx: ctx, def: def}, nil
}

// Validate returns a *post.ValidationError naming the first field of p that
// does not satisfy #Post, or nil.
//
// Empty comments and reactions are checked as their defaults since that is
// what the store writes for them.
func (v *Validator) Validate(p post.Post) error {
	if p.Comments.IsEmpty() {
		p.Comments = post.EmptyComments
	}
	if p.Reactions.IsEmpty() {
		p.Reactions = post.DefaultReactions
	}

	data, err := json.Marshal(p)
	if err != nil {
		return &post.ValidationError{Message: fmt.Sprintf("encode post: %v", err)}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	doc := v.ctx.CompileBytes(data, cue.Filename("post.json"))
	if err := doc.Err(); err != nil {
		return toValidationError(err)
	}

	unified := v.def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return toValidationError(err)
	}
	return nil
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
	defaultErr       error
)

// Validate checks p with a lazily compiled package-level Validator.
func Validate(p post.Post) error {
	defaultOnce.Do(func() {
		defaultValidator, defaultErr = New()
	})
	if defaultErr != nil {
		return defaultErr
	}
	return defaultValidator.Validate(p)
}

// toValidationError converts CUE errors to a ValidationError.
// Errors are ordered by field path so the reported field is deterministic.
func toValidationError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &post.ValidationError{Message: err.Error()}
	}

	slices.SortStableFunc(errs, func(a, b errors.Error) int {
		return strings.Compare(fieldPath(a.Path()), fieldPath(b.Path()))
	})

	first := errs[0]
	format, args := first.Msg()
	return &post.ValidationError{
		Field:   fieldPath(first.Path()),
		Message: fmt.Sprintf(format, args...),
	}
}

// fieldPath joins a CUE error path into a wire field name, dropping
// definition selectors such as #Post.
func fieldPath(path []string) string {
	var parts []string
	for _, sel := range path {
		if strings.HasPrefix(sel, "#") {
			continue
		}
		parts = append(parts, sel)
	}
	return strings.Join(parts, ".")
}
