package pipeline

import "errors"

var (
	// ErrInvokerRequired is returned when no capability invoker is provided.
	ErrInvokerRequired = errors.New("capability invoker required")

	// ErrInvalidTransition indicates a state change the run state machine does not allow.
	ErrInvalidTransition = errors.New("invalid pipeline state transition")
)
