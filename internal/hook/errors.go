package hook

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingID is returned when a required resource id is empty.
	ErrMissingID = errors.New("required identifier missing")
	// ErrMissingParent is returned when no organization, project or
	// default project is available to scope a call.
	ErrMissingParent = errors.New("no parent resolvable")
	// ErrConflictingJobConfig is returned when a job is given both an
	// inspect and a risk analysis config.
	ErrConflictingJobConfig = errors.New("inspect and risk job configs are mutually exclusive")
)

// PreconditionError reports an invalid call detected before any RPC is made.
type PreconditionError struct {
	Op    string // hook method, e.g. "GetDlpJob"
	Field string // offending argument, if any
	Err   error  // one of the Err* sentinels
}

func (e *PreconditionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("dlp: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("dlp: %s: %s: %v", e.Op, e.Field, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

func missingID(op, field string) error {
	return &PreconditionError{Op: op, Field: field, Err: ErrMissingID}
}
