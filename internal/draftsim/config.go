package draftsim

import "time"

// Config holds configuration for a simulated draft.
type Config struct {
	BaseURL  string        // Base URL of the service
	DraftID  string        // Draft to fill; reset before the run when Reset is set
	Drafters int           // Concurrent drafters racing for the best available player
	Rounds   int           // Picks each drafter makes
	Window   int           // Board rows each drafter fetches before picking
	Rate     float64       // Pick attempts per second across all drafters, 0 for unlimited
	Timeout  time.Duration // HTTP request timeout
	Reset    bool          // Clear the draft before the run
	Output   string        // Report file, default draft_sim_TIMESTAMP.json
	Verbose  bool          // Log every pick
}

// Stats holds run statistics.
type Stats struct {
	PicksAttempted int
	PicksMade      int
	Conflicts      int
	Failed         int
	BoardFetches   int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}

// Pick is one successful pick, in the order the server acknowledged it.
type Pick struct {
	Drafter  int    `json:"drafter"`
	Round    int    `json:"round"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Rank     int    `json:"rank"`
}

// Report is written to Config.Output after a run.
type Report struct {
	DraftID  string   `json:"draftId"`
	Drafters int      `json:"drafters"`
	Rounds   int      `json:"rounds"`
	Picks    []Pick   `json:"picks"`
	Problems []string `json:"problems,omitempty"`
	Duration string   `json:"duration"`
}
