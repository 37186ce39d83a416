package scores

// Entry is one leaderboard row. Position is 1-based and computed from points
// at query time, so tied players share a position.
type Entry struct {
	Position int
	Username string
	Solves   int
	Strikes  int
	Points   int
}

// Sink receives score events from running sessions. Calls are fire-and-forget
// from the session's point of view: a failed write must not affect gameplay.
type Sink interface {
	RecordSolve(actor string, weight int) error
	RecordStrike(actor string, weight int) error
	RecordPenalty(actor string, points int) error
}

// NopSink discards all score events. Used when no database is configured.
type NopSink struct{}

func (NopSink) RecordSolve(string, int) error   { return nil }
func (NopSink) RecordStrike(string, int) error  { return nil }
func (NopSink) RecordPenalty(string, int) error { return nil }
