package lifecycle

import (
	"errors"
	"fmt"

	"github.com/cuemby/vordr/pkg/types"
)

// InvalidTransition reports that a transition's guard state did not match
// the container's actual state. No durable or runtime state is touched
// when this is returned.
type InvalidTransition struct {
	From types.ContainerState
	To   types.ContainerState
}

func (e *InvalidTransition) Error() string {
	return fmt.Sprintf("lifecycle: invalid transition from %s to %s", e.From, e.To)
}

// ErrMissingPID is an internal error: spec invariant P3 guarantees a
// container in Running or Paused state carries a pid. Seeing this means
// the state store was written to by something other than this package.
var ErrMissingPID = errors.New("lifecycle: container has no recorded pid")
