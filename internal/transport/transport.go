package transport

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Attachment is an outbound file sent alongside a message.
type Attachment struct {
	ID          string
	Name        string
	ContentType string
	Body        []byte
}

// Sender delivers outbound messages to a channel. Implementations must be
// safe for concurrent use; game code sends from timer goroutines as well as
// command handlers. Send is called while per-module state is locked and must
// return promptly: implementations that talk to a slow network should queue
// the delivery instead of blocking the caller.
type Sender interface {
	Send(channelID, text string, attachment *Attachment) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(channelID, text string, attachment *Attachment) error

func (f SenderFunc) Send(channelID, text string, attachment *Attachment) error {
	return f(channelID, text, attachment)
}

// SVGAttachment wraps rendered SVG markup as an attachment.
func SVGAttachment(name, markup string) *Attachment {
	return &Attachment{
		ID:          uuid.NewString(),
		Name:        name + ".svg",
		ContentType: "image/svg+xml",
		Body:        []byte(markup),
	}
}

// RenderView runs a module view function behind a recover boundary. A view
// that panics or produces nothing degrades to a text-only message instead of
// taking the session down.
func RenderView(log zerolog.Logger, name string, view func() string) (att *Attachment) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("view", name).Interface("panic", r).Msg("view render panicked")
			att = nil
		}
	}()
	markup := view()
	if markup == "" {
		return nil
	}
	return SVGAttachment(name, markup)
}
