package gamification

import (
	"errors"
	"fmt"

	"github.com/medilearn/healthxp/internal/progress"
)

// ErrLearnerRequired is returned when an operation is called without a
// learner id.
var ErrLearnerRequired = errors.New("learner id is required")

// PersistError reports that the new state could not be saved. State holds
// the computed state so the caller can retry with Service.Save.
type PersistError struct {
	LearnerID string
	State     progress.State
	Err       error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist state for learner: %v", e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
