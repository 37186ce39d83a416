// Package scores persists per-player results. Sessions talk to the Sink
// contract; the SQLite store behind it keeps a running leaderboard of points,
// solves and strikes.
package scores
