package core

import "errors"

// Domain errors for particle and candidate operations.
var (
	// ErrUnknownParticle indicates a particle id outside the supported numbering scheme.
	ErrUnknownParticle = errors.New("core: unknown particle id")

	// ErrInvalidNucleus indicates mass/charge numbers that do not form a valid nucleus.
	ErrInvalidNucleus = errors.New("core: invalid nucleus mass or charge number")
)
