package jsonsmith

import "errors"

var (
	// ErrProtocol is returned when the oracle's response contains the
	// degenerate `""` sequence, which means the model has stopped following
	// the one-string-at-a-time protocol. Not retried at the acquisition
	// layer; leaf generators may retry at their own level.
	ErrProtocol = errors.New(`jsonsmith: detected "" sequence in oracle response`)

	// ErrStoppingPattern is returned when the oracle's stream ends without
	// ever matching a required stopping pattern. Recoverable by leaf
	// generators via temperature escalation.
	ErrStoppingPattern = errors.New("jsonsmith: response ended before stopping pattern matched")

	// ErrGeneration is returned when a value could not be generated after
	// exhausting all retries. Fatal: it aborts the run.
	ErrGeneration = errors.New("jsonsmith: failed to generate value")
)

// Schema shape problems are reported as *[schema.Error] values, both by
// static validation before the run and by value dispatch during it.
