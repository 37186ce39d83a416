package bomb

import "errors"

// UserError is channel-facing feedback about a malformed or disallowed
// command. It is resolved into a reply, never treated as a fault.
type UserError string

func (e UserError) Error() string { return string(e) }

var (
	// ErrSessionExists is returned when a start targets a channel that
	// already has a live session.
	ErrSessionExists = errors.New("bomb: a bomb is already ticking in this channel")

	// ErrShutdown is returned when a start arrives in shutdown mode.
	ErrShutdown = errors.New("bomb: shutdown mode, no new bombs can be started")
)
