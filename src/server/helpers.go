package server

import (
	"net/http"

	"quote-observer/src/models"
	"quote-observer/src/normalize"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// -----------------------------------------------------------------------------

// internalError logs the cause and answers with a generic 500.
func (s *FastAPIServer) internalError(c *gin.Context, op string, err error) {
	s.Logger.Error("%s: %v", op, err)
	respondError(c, http.StatusInternalServerError, "internal server error")
}

// -----------------------------------------------------------------------------

// symbolSet normalizes a subscription list. An empty result means "all symbols".
func symbolSet(symbols []string) map[string]bool {
	set := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		if n := normalize.Symbol(sym); n != "" {
			set[n] = true
		}
	}
	return set
}

// -----------------------------------------------------------------------------

// filterQuotes keeps the quotes whose symbol is in set. A nil or empty set
// keeps everything.
func filterQuotes(quotes []models.MQuote, set map[string]bool) []models.MQuote {
	if len(set) == 0 {
		return quotes
	}
	out := make([]models.MQuote, 0, len(set))
	for _, q := range quotes {
		if set[q.Symbol] {
			out = append(out, q)
		}
	}
	return out
}
