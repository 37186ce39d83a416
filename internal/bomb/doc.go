// Package bomb implements the session core: per-channel bomb sessions, module
// slots with the claim/take/confirm ownership protocol, the shared strike
// counter, detonation votes, and exactly-once terminal dispatch.
package bomb
