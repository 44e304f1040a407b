package core

// Module is the capability interface shared by every per-step simulation
// process: trajectory integrators, stochastic interactions and break
// conditions. Process may mutate the candidate, attach secondaries and
// constrain the next step. Domain-inapplicable candidates are a no-op.
type Module interface {
	Process(c *Candidate) error
}

// Observer is notified after each completed candidate step.
type Observer interface {
	OnStep(c *Candidate)
}
