package bomb

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/bombsquad-bot/bombsquad/internal/logging"
	"github.com/bombsquad-bot/bombsquad/internal/module"
	"github.com/bombsquad-bot/bombsquad/internal/scores"
	"github.com/bombsquad-bot/bombsquad/internal/transport"
)

// Registry owns the channel -> session map, the one globally shared mutable
// structure. Starts are insert-if-absent; terminal dispatch removes the
// session. In shutdown mode new starts are rejected and onIdle fires once the
// last live session ends.
type Registry struct {
	log    zerolog.Logger
	onIdle func()

	mu       sync.Mutex
	sessions map[string]*Session
	shutdown bool
}

// NewRegistry returns an empty session registry. onIdle may be nil.
func NewRegistry(onIdle func()) *Registry {
	return &Registry{
		log:      logging.WithComponent("bomb"),
		onIdle:   onIdle,
		sessions: map[string]*Session{},
	}
}

// Start creates and installs a session for the channel. It fails with
// ErrSessionExists or ErrShutdown, or with the construction error of a module
// that could not synthesize a solvable state.
func (r *Registry) Start(channel string, cfg Config, mods []module.Module, sender transport.Sender, sink scores.Sink, opts ...Option) (*Session, error) {
	opts = append(opts, WithOnEnd(func(s *Session, state State) {
		r.remove(channel)
	}))
	sess, err := NewSession(channel, cfg, mods, sender, sink, opts...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		return nil, ErrShutdown
	}
	if _, exists := r.sessions[channel]; exists {
		r.mu.Unlock()
		return nil, ErrSessionExists
	}
	r.sessions[channel] = sess
	r.mu.Unlock()

	r.log.Info().Str("channel", channel).Int("modules", sess.ModuleCount()).Msg("session started")
	return sess, nil
}

// Get returns the live session for a channel.
func (r *Registry) Get(channel string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[channel]
	return sess, ok
}

// Sessions returns the live sessions, for shutdown broadcasts.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out
}

// Shutdown stops accepting new starts. It reports whether the registry was
// already idle, in which case onIdle has been invoked before returning.
func (r *Registry) Shutdown() bool {
	r.mu.Lock()
	r.shutdown = true
	idle := len(r.sessions) == 0
	r.mu.Unlock()

	r.log.Info().Bool("idle", idle).Msg("shutdown mode activated")
	if idle && r.onIdle != nil {
		r.onIdle()
	}
	return idle
}

func (r *Registry) remove(channel string) {
	r.mu.Lock()
	delete(r.sessions, channel)
	idle := r.shutdown && len(r.sessions) == 0
	r.mu.Unlock()

	if idle && r.onIdle != nil {
		r.onIdle()
	}
}
