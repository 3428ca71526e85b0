package models

// -----------------------------------------------------------------------------
// Websocket payloads
// -----------------------------------------------------------------------------

type MQuoteUpdate struct {
	Type      string   `json:"type"` // "INITIAL" or "UPDATE"
	Quotes    []MQuote `json:"quotes"`
	Timestamp int64    `json:"timestamp"`
}

// MSubscribeCommand is sent by websocket clients to filter the symbols they receive.
type MSubscribeCommand struct {
	Command string   `json:"command"`
	Symbols []string `json:"symbols"`
}

// MCycleResult summarises one poll cycle.
type MCycleResult struct {
	Started   int64 `json:"started"`
	Finished  int64 `json:"finished"`
	Requested int   `json:"requested"`
	Recorded  int   `json:"recorded"`
	Snapshots int   `json:"snapshots"`
	Failed    int   `json:"failed"`
	Skipped   int   `json:"skipped"` // symbols whose market was closed
	TimedOut  bool  `json:"timed_out"`
}
