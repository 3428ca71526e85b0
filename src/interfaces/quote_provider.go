package interfaces

import (
	"context"

	"quote-observer/src/models"
)

// -----------------------------------------------------------------------------
// IQuoteProvider fetches the current quote of one symbol from an upstream service.
// -----------------------------------------------------------------------------

type IQuoteProvider interface {

	// Name returns the unique identifier of the provider
	Name() string

	// -----------------------------------------------------------------------------

	// FetchQuote returns the quote for symbol. helpers.ErrNoData signals a payload
	// without a usable close value.
	FetchQuote(ctx context.Context, symbol string) (models.MQuote, error)
}
