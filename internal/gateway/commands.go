package gateway

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// ProtocolVersion identifies the gateway contract version exposed via /health.
	ProtocolVersion = "1.0.0"
	// CommandSchemaVersion is the currently supported inbound command version.
	CommandSchemaVersion = 1
)

// Command is a single chat line relayed by an external chat adapter. The
// adapter fills in who said what in which channel; the gateway hands the
// text to the command router exactly as a local player would have typed it.
type Command struct {
	Version    int       `json:"version"`
	MessageID  string    `json:"message_id"`
	ChannelID  string    `json:"channel_id"`
	ActorID    string    `json:"actor_id"`
	Text       string    `json:"text"`
	ClientTime time.Time `json:"client_time"`
	ServerTime time.Time `json:"server_time"`
}

// Normalize applies defaults and canonical formatting before validation.
func (c *Command) Normalize() {
	if c == nil {
		return
	}
	if c.Version == 0 {
		c.Version = CommandSchemaVersion
	}
	c.MessageID = strings.TrimSpace(c.MessageID)
	c.ChannelID = strings.TrimSpace(c.ChannelID)
	c.ActorID = strings.TrimSpace(c.ActorID)
	c.Text = strings.TrimSpace(c.Text)
}

// StampServerTime overwrites ServerTime with the supplied clock reading (UTC).
func (c *Command) StampServerTime(now time.Time) {
	if c == nil {
		return
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	c.ServerTime = now.UTC()
}

// Validate enforces baseline schema requirements for incoming commands.
func (c Command) Validate() error {
	if c.Version != CommandSchemaVersion {
		return fmt.Errorf("version %d not supported", c.Version)
	}
	if c.MessageID == "" {
		return errors.New("message_id is required")
	}
	if c.ChannelID == "" {
		return errors.New("channel_id is required")
	}
	if c.ActorID == "" {
		return errors.New("actor_id is required")
	}
	if c.Text == "" {
		return errors.New("text is required")
	}
	return nil
}

// Dispatcher consumes validated commands. Satisfied by router.Router.
type Dispatcher interface {
	Route(channel, actor, text string)
}

// DispatcherFunc adapts a function into a Dispatcher.
type DispatcherFunc func(channel, actor, text string)

// Route executes f.
func (f DispatcherFunc) Route(channel, actor, text string) {
	if f == nil {
		return
	}
	f(channel, actor, text)
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type commandResponse struct {
	Status     string    `json:"status"`
	ServerTime time.Time `json:"server_time"`
}
