package dqn

import (
	"errors"
	"fmt"
)

// DqnError is an error caused by a DQN update
type DqnError struct {
	Op  string
	Err error
}

// errInstability indicates NaN or Inf values in network predictions
// or update targets
var errInstability = errors.New("NaN or Inf in network predictions")

func (e *DqnError) Error() string {
	return fmt.Sprintf("%v: %v", e.Op, e.Err)
}

func (e *DqnError) Unwrap() error {
	return e.Err
}

// IsNumericInstability returns whether an error was caused by NaN or
// Inf values appearing during a learning update. Runs hitting this
// error are corrupted and should be aborted.
func IsNumericInstability(err error) bool {
	var dqnErr *DqnError
	if errors.As(err, &dqnErr) {
		return dqnErr.Err == errInstability
	}
	return false
}
