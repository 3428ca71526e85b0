package interfaces

import "quote-observer/src/models"

// -----------------------------------------------------------------------------
// IPollStatus exposes the state of the poll loop to health endpoints.
// -----------------------------------------------------------------------------

type IPollStatus interface {

	// LastCycle returns the most recent finished cycle, if any.
	LastCycle() (models.MCycleResult, bool)

	// InFlight reports whether a cycle is running.
	InFlight() bool
}
