package interfaces

import "quote-observer/src/models"

// -----------------------------------------------------------------------------
// IQuoteBroadcaster pushes fresh quotes to connected listeners.
// -----------------------------------------------------------------------------

type IQuoteBroadcaster interface {
	// Broadcast queues the quotes recorded by one poll cycle.
	Broadcast(quotes []models.MQuote)
}
