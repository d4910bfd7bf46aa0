package importer

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/wordup-dev/wordup/internal/store"
)

// Action is what the importer does about a failure.
type Action int

const (
	// Ignore logs the failure and carries on with a fallback.
	Ignore Action = iota
	// SkipUnit logs the failure and moves to the next document.
	SkipUnit
	// Abort stops the run. Earlier phases stay applied.
	Abort
)

func (a Action) String() string {
	switch a {
	case Ignore:
		return "ignore"
	case SkipUnit:
		return "skip"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// Failure names a class of failure the policy decides on.
type Failure string

const (
	FailRole          Failure = "role"
	FailCapability    Failure = "capability"
	FailUser          Failure = "user"
	FailTerm          Failure = "term"
	FailTag           Failure = "tag"
	FailMenu          Failure = "menu"
	FailMenuItem      Failure = "menu_item"
	FailAuthor        Failure = "author"
	FailFeaturedImage Failure = "featured_image"
	FailReadDocument  Failure = "read_document"
	FailParse         Failure = "parse"
	FailRender        Failure = "render"
	FailCreatePost    Failure = "create_post"
	FailMedia         Failure = "media"
	FailListPosts     Failure = "list_posts"
	FailDeletePosts   Failure = "delete_posts"
	FailReadDir       Failure = "read_dir"
)

// Policy maps each failure class to an action. Unknown classes abort.
type Policy map[Failure]Action

// DefaultPolicy is the error policy of a normal import.
var DefaultPolicy = Policy{
	FailRole:          Ignore,
	FailCapability:    Ignore,
	FailUser:          Ignore,
	FailTerm:          Ignore,
	FailTag:           Ignore,
	FailMenu:          Ignore,
	FailMenuItem:      Ignore,
	FailAuthor:        Ignore,
	FailFeaturedImage: Ignore,
	FailReadDocument:  SkipUnit,
	FailParse:         SkipUnit,
	FailRender:        SkipUnit,
	FailCreatePost:    SkipUnit,
	FailMedia:         Abort,
	FailListPosts:     Abort,
	FailDeletePosts:   Abort,
	FailReadDir:       Abort,
}

// Strict returns a copy of p in which every failure aborts.
func (p Policy) Strict() Policy {
	out := make(Policy, len(p))
	for failure := range p {
		out[failure] = Abort
	}
	return out
}

// Action decides what to do about err. An unavailable store or a cancelled
// context always aborts.
func (p Policy) Action(f Failure, err error) Action {
	if errors.Is(err, store.ErrUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return Abort
	}
	action, ok := p[f]
	if !ok {
		return Abort
	}
	return action
}

// ErrAborted is matched by every error that stopped a run.
var ErrAborted = errors.New("import aborted")

// PhaseError carries the context of the failure that aborted a run.
type PhaseError struct {
	Phase string
	Item  string
	Err   error
}

func (e *PhaseError) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("%s phase: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s phase: %s: %v", e.Phase, e.Item, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Is makes every PhaseError match ErrAborted.
func (e *PhaseError) Is(target error) bool {
	return target == ErrAborted
}
