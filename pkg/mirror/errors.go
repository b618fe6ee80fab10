package mirror

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrPublish matches any failed remote write that may succeed on a later try.
	ErrPublish = errors.New("publish failed")
	// ErrStaleMirror matches updates against a message or channel that no
	// longer exists. The mirror has to be created again.
	ErrStaleMirror = errors.New("mirror message no longer exists")
	// ErrNotFound is returned by a Transport when the addressed channel or
	// message is gone.
	ErrNotFound = errors.New("not found")
)

type PublishError struct {
	Op  string
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPublish, e.Op, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

func (e *PublishError) Is(target error) bool {
	return target == ErrPublish
}

type StaleError struct {
	Identity Identity
	Err      error
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStaleMirror, e.Identity, e.Err)
}

func (e *StaleError) Unwrap() error {
	return e.Err
}

func (e *StaleError) Is(target error) bool {
	return target == ErrStaleMirror
}
