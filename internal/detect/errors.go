package detect

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAmbiguous means several rules tied for the best score.
	ErrAmbiguous = errors.New("project type is ambiguous")
	// ErrNoMatch means no rule reached its threshold.
	ErrNoMatch = errors.New("no rule matches the project")
	// ErrUnknownRule means a pre-selected rule is not in the catalog.
	ErrUnknownRule = errors.New("unknown rule")
	// ErrInvalidTarget means the target is not a readable directory.
	ErrInvalidTarget = errors.New("target is not a directory")
)

// AmbiguousError carries the rules that tied.
type AmbiguousError struct {
	Dir        string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s: %s (candidates: %s)", ErrAmbiguous, e.Dir, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousError) Unwrap() error { return ErrAmbiguous }
