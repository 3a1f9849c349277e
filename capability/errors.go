package capability

import "errors"

var (
	// ErrMissingOutputs indicates quality assessment was requested before every
	// generation output was available.
	ErrMissingOutputs = errors.New("quality assessment requires all generation outputs")

	// ErrNoHandler indicates an invoker without a handler for some kind.
	ErrNoHandler = errors.New("no handler registered for capability kind")
)
