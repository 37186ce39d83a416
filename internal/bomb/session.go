package bomb

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bombsquad-bot/bombsquad/internal/edgework"
	"github.com/bombsquad-bot/bombsquad/internal/logging"
	"github.com/bombsquad-bot/bombsquad/internal/module"
	"github.com/bombsquad-bot/bombsquad/internal/scores"
	"github.com/bombsquad-bot/bombsquad/internal/transport"
)

// State is the session lifecycle. Defused and Detonated are terminal and
// single-fire.
type State int

const (
	StateRunning State = iota
	StateDefused
	StateDetonated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDefused:
		return "defused"
	case StateDetonated:
		return "detonated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config carries the tunables a session needs.
type Config struct {
	ClaimBound      int
	TakeoverTimeout time.Duration
	DetonateWindow  time.Duration
	DetonateQuorum  int
	MaxListSize     int
	Owner           string // privileged actor, may detonate directly
}

func (c *Config) normalize() {
	if c.ClaimBound < 1 {
		c.ClaimBound = 3
	}
	if c.TakeoverTimeout <= 0 {
		c.TakeoverTimeout = time.Minute
	}
	if c.DetonateWindow <= 0 {
		c.DetonateWindow = time.Minute
	}
	if c.DetonateQuorum < 1 {
		c.DetonateQuorum = 3
	}
	if c.MaxListSize < 1 {
		c.MaxListSize = 12
	}
}

// vote is a pending detonation quorum. votes holds confirming actors other
// than the initiator.
type vote struct {
	initiator string
	votes     map[string]bool
	gen       uint64
	timer     *time.Timer
}

// Session is one live bomb in one channel.
type Session struct {
	channel string
	cfg     Config
	edge    *edgework.Context
	slots   []*Slot
	sender  transport.Sender
	sink    scores.Sink
	log     zerolog.Logger
	clock   func() time.Time
	started time.Time
	onEnd   func(*Session, State)
	// coop switches the announcement and status texture to the cooperative
	// phrasing. It never affects claims, takeovers, or scoring.
	coop bool

	mu          sync.Mutex
	rng         *rand.Rand
	strikes     int
	solvedCount int
	owned       map[string]int // unsolved claims per actor, session-wide
	vote        *vote
	voteGen     uint64

	state  atomic.Int32 // State; the CAS here is the single-fire guard
	notify errgroup.Group
}

// Option customizes session construction.
type Option func(*Session)

// WithClock injects the time source used for elapsed-time display and
// takeover deadlines.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) { s.clock = clock }
}

// WithRand injects the random source used for edgework, module setup, and
// list sampling.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

// WithOnEnd registers a callback invoked once, after the terminal
// notification is sent.
func WithOnEnd(fn func(*Session, State)) Option {
	return func(s *Session) { s.onEnd = fn }
}

// WithCooperative switches the session to cooperative-mode messaging.
func WithCooperative() Option {
	return func(s *Session) { s.coop = true }
}

// NewSession generates edgework, shuffles and initializes the given modules,
// and returns a running session. A module that fails to synthesize a solvable
// state aborts construction.
func NewSession(channel string, cfg Config, mods []module.Module, sender transport.Sender, sink scores.Sink, opts ...Option) (*Session, error) {
	if len(mods) == 0 {
		return nil, fmt.Errorf("bomb: session needs at least one module")
	}
	cfg.normalize()
	s := &Session{
		channel: channel,
		cfg:     cfg,
		sender:  sender,
		sink:    sink,
		log:     logging.WithChannel("bomb", channel),
		clock:   time.Now,
		owned:   map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s.started = s.clock()
	s.notify.SetLimit(8)

	edge, err := edgework.Generate(s.rng)
	if err != nil {
		return nil, fmt.Errorf("bomb: generate edgework: %w", err)
	}
	s.edge = edge

	s.rng.Shuffle(len(mods), func(i, j int) { mods[i], mods[j] = mods[j], mods[i] })
	for i, mod := range mods {
		// Modules may retain the rng and reroll under their slot lock, so
		// each one gets its own source seeded from the session rng.
		if err := mod.Init(edge, rand.New(rand.NewSource(s.rng.Int63()))); err != nil {
			return nil, fmt.Errorf("bomb: init module %s: %w", mod.Info().ID, err)
		}
		s.slots = append(s.slots, &Slot{session: s, index: i + 1, mod: mod})
	}
	return s, nil
}

// Channel returns the channel this session belongs to.
func (s *Session) Channel() string {
	return s.channel
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Strikes returns the current strike count.
func (s *Session) Strikes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strikes
}

// SolvedCount returns how many modules are solved.
func (s *Session) SolvedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.solvedCount
}

// ModuleCount returns the number of modules on the bomb.
func (s *Session) ModuleCount() int {
	return len(s.slots)
}

func (s *Session) elapsed() time.Duration {
	return s.clock().Sub(s.started)
}

func formatDuration(d time.Duration) string {
	seconds := int(d.Seconds())
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}

func (s *Session) afterFunc(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, fn)
}

// send delivers an outbound message; a transport failure is logged, never
// surfaced to gameplay.
func (s *Session) send(text string, att *transport.Attachment) {
	if err := s.sender.Send(s.channel, text, att); err != nil {
		s.log.Warn().Err(err).Msg("send failed")
	}
}

func (s *Session) reply(actor, format string, args ...any) {
	s.send("@"+actor+" "+fmt.Sprintf(format, args...), nil)
}

// recordScore dispatches a score-sink call without blocking gameplay on it.
func (s *Session) recordScore(fn func() error) {
	s.notify.Go(func() error {
		if err := fn(); err != nil {
			s.log.Warn().Err(err).Msg("score sink write failed")
		}
		return nil
	})
}

// Cooperative reports whether cooperative-mode messaging is on.
func (s *Session) Cooperative() bool {
	return s.coop
}

// Announce sends the armed notification.
func (s *Session) Announce() {
	plural := "modules"
	if len(s.slots) == 1 {
		plural = "module"
	}
	kind := "bomb"
	if s.coop {
		kind = "cooperative bomb"
	}
	s.send(fmt.Sprintf("A %s with %d %s has been armed!\nEdgework: `%s`", kind, len(s.slots), plural, s.edge), nil)
}

// Dispatch routes a module-indexed command to its slot.
func (s *Session) Dispatch(actor string, index int, verb string, args []string) {
	if index < 1 || index > len(s.slots) {
		plural := "are only %d modules"
		if len(s.slots) == 1 {
			plural = "is only %d module"
		}
		s.reply(actor, "Double check the module number - there "+plural+" on this bomb!", len(s.slots))
		return
	}
	if verb == "" {
		s.reply(actor, "What should I do with module %d? You need to give me a command!", index)
		return
	}
	s.slots[index-1].handle(actor, verb, args)
}

// Edgework replies with the edgework summary line.
func (s *Session) Edgework(actor string) {
	s.reply(actor, "Edgework: `%s`", s.edge)
}

// Status replies with elapsed time, strikes, and solve progress.
func (s *Session) Status(actor string) {
	s.mu.Lock()
	strikes, solved := s.strikes, s.solvedCount
	s.mu.Unlock()
	plural := "strikes"
	if strikes == 1 {
		plural = "strike"
	}
	prefix := ""
	if s.coop {
		prefix = "Cooperative mode on, "
	}
	s.reply(actor, "%sTime: %s, %d %s, %d out of %d modules solved.",
		prefix, formatDuration(s.elapsed()), strikes, plural, solved, len(s.slots))
}

// Unclaimed lists unclaimed unsolved modules, sampling when the list is long.
func (s *Session) Unclaimed(actor string) {
	var unclaimed []*Slot
	for _, sl := range s.slots {
		if solved, owner := sl.snapshot(); !solved && owner == "" {
			unclaimed = append(unclaimed, sl)
		}
	}
	if len(unclaimed) == 0 {
		s.reply(actor, "There are no unclaimed modules.")
		return
	}
	header := "Unclaimed modules:"
	if len(unclaimed) > s.cfg.MaxListSize {
		header = fmt.Sprintf("%d randomly chosen unclaimed modules:", s.cfg.MaxListSize)
		unclaimed = s.sampleSlots(unclaimed, s.cfg.MaxListSize)
	}
	lines := []string{header}
	for _, sl := range unclaimed {
		lines = append(lines, fmt.Sprintf("#%d: %s", sl.index, sl.mod.Info().Name))
	}
	s.reply(actor, "%s", strings.Join(lines, "\n"))
}

// Claimed lists claimed unsolved modules and their owners.
func (s *Session) Claimed(actor string) {
	type claimedSlot struct {
		sl    *Slot
		owner string
	}
	var claimed []claimedSlot
	for _, sl := range s.slots {
		if solved, owner := sl.snapshot(); !solved && owner != "" {
			claimed = append(claimed, claimedSlot{sl, owner})
		}
	}
	if len(claimed) == 0 {
		s.reply(actor, "No modules have been claimed. Check `unclaimed`.")
		return
	}
	lines := []string{"Claimed modules:"}
	for _, c := range claimed {
		lines = append(lines, fmt.Sprintf("%s - claimed by %s", c.sl.name(), c.owner))
	}
	s.reply(actor, "%s", strings.Join(lines, "\n"))
}

// Claims lists the requesting actor's own unsolved claims.
func (s *Session) Claims(actor string) {
	var names []string
	for _, sl := range s.slots {
		if solved, owner := sl.snapshot(); !solved && owner == actor {
			names = append(names, sl.name())
		}
	}
	switch len(names) {
	case 0:
		s.reply(actor, "You have not claimed any modules.")
	case 1:
		s.reply(actor, "You have only claimed %s.", names[0])
	default:
		s.reply(actor, "You have claimed %s and %s.", strings.Join(names[:len(names)-1], ", "), names[len(names)-1])
	}
}

// Find lists modules whose display name contains the needle.
func (s *Session) Find(actor string, args []string) {
	if len(args) == 0 {
		s.reply(actor, "What should I look for?")
		return
	}
	needle := strings.ToLower(strings.Join(args, " "))
	var found []*Slot
	for _, sl := range s.slots {
		if strings.Contains(strings.ToLower(sl.mod.Info().Name), needle) {
			found = append(found, sl)
		}
	}
	if len(found) == 0 {
		s.reply(actor, "Sorry, I couldn't find anything.")
		return
	}
	if len(found) > s.cfg.MaxListSize {
		found = s.sampleSlots(found, s.cfg.MaxListSize)
	}
	var lines []string
	for _, sl := range found {
		solved, owner := sl.snapshot()
		status := "unclaimed"
		switch {
		case solved:
			status = fmt.Sprintf("solved by %s", owner)
		case owner != "":
			status = fmt.Sprintf("claimed by %s", owner)
		}
		lines = append(lines, fmt.Sprintf("%s - %s", sl.name(), status))
	}
	s.reply(actor, "Here's what I could find:\n%s", strings.Join(lines, "\n"))
}

// ClaimAny claims a random unclaimed module for the actor.
func (s *Session) ClaimAny(actor string, view bool) {
	var unclaimed []*Slot
	for _, sl := range s.slots {
		if solved, owner := sl.snapshot(); !solved && owner == "" {
			unclaimed = append(unclaimed, sl)
		}
	}
	if len(unclaimed) == 0 {
		s.reply(actor, "Sorry, there are no unclaimed modules.")
		return
	}
	s.mu.Lock()
	pick := unclaimed[s.rng.Intn(len(unclaimed))]
	s.mu.Unlock()
	verb := "claim"
	if view {
		verb = "claimview"
	}
	pick.handle(actor, verb, nil)
}

// sampleSlots picks n slots at random, returned in index order.
func (s *Session) sampleSlots(slots []*Slot, n int) []*Slot {
	s.mu.Lock()
	perm := s.rng.Perm(len(slots))
	s.mu.Unlock()
	out := make([]*Slot, 0, n)
	for _, i := range perm[:n] {
		out = append(out, slots[i])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}

// Detonate handles the detonation operation: direct for the privileged
// actor, a quorum vote for everyone else.
func (s *Session) Detonate(actor string) {
	if s.cfg.Owner != "" && actor == s.cfg.Owner {
		s.finish(StateDetonated)
		return
	}

	s.mu.Lock()
	if s.vote == nil {
		s.voteGen++
		v := &vote{initiator: actor, votes: map[string]bool{}, gen: s.voteGen}
		gen := v.gen
		v.timer = s.afterFunc(s.cfg.DetonateWindow, func() { s.expireVote(gen) })
		s.vote = v
		s.mu.Unlock()
		s.send(fmt.Sprintf("@%s wants to detonate this bomb instead of defusing it. %d more people must type `detonate` within %s to agree.",
			actor, s.cfg.DetonateQuorum, s.cfg.DetonateWindow), nil)
		return
	}
	v := s.vote
	if actor == v.initiator || v.votes[actor] {
		s.mu.Unlock()
		s.reply(actor, "You have already voted to detonate.")
		return
	}
	v.votes[actor] = true
	if len(v.votes) >= s.cfg.DetonateQuorum {
		v.timer.Stop()
		s.vote = nil
		s.mu.Unlock()
		s.finish(StateDetonated)
		return
	}
	confirmed := len(v.votes)
	s.mu.Unlock()
	s.send(fmt.Sprintf("%d of %d detonation confirmations.", confirmed, s.cfg.DetonateQuorum), nil)
}

// expireVote runs in the timer goroutine; a vote that already reached quorum
// or was replaced has a different generation and is ignored.
func (s *Session) expireVote(gen uint64) {
	s.mu.Lock()
	if s.vote == nil || s.vote.gen != gen {
		s.mu.Unlock()
		return
	}
	confirmed := len(s.vote.votes)
	quorum := s.cfg.DetonateQuorum
	s.vote = nil
	s.mu.Unlock()
	s.send(fmt.Sprintf("Only %d out of %d needed people agreed. Not detonating.", confirmed, quorum), nil)
}

// finish transitions to a terminal state exactly once: it cancels all
// outstanding timers, flushes score writes, and sends the closing
// notification with the full transcript attached.
func (s *Session) finish(state State) {
	if !s.state.CompareAndSwap(int32(StateRunning), int32(state)) {
		return
	}

	s.mu.Lock()
	if s.vote != nil {
		s.vote.timer.Stop()
		s.vote = nil
	}
	strikes := s.strikes
	s.mu.Unlock()

	for _, sl := range s.slots {
		sl.mu.Lock()
		sl.stopTakeoverLocked()
		sl.mu.Unlock()
	}

	s.notify.Wait()

	plural := "strikes"
	if strikes == 1 {
		plural = "strike"
	}
	var text string
	if state == StateDetonated {
		text = fmt.Sprintf(":boom: The bomb has been **detonated** after %s and %d %s.", formatDuration(s.elapsed()), strikes, plural)
	} else {
		text = fmt.Sprintf("The bomb has been defused after %s and %d %s.", formatDuration(s.elapsed()), strikes, plural)
	}
	s.send(text, &transport.Attachment{
		ID:          uuid.NewString(),
		Name:        "bomb-log.txt",
		ContentType: "text/plain",
		Body:        []byte(s.transcript()),
	})
	s.log.Info().Stringer("state", state).Int("strikes", strikes).Msg("session ended")

	if s.onEnd != nil {
		s.onEnd(s, state)
	}
}

// transcript concatenates the edgework line and every slot's event log.
func (s *Session) transcript() string {
	parts := []string{fmt.Sprintf("Edgework: %s", s.edge)}
	for _, sl := range s.slots {
		if t := sl.transcript(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}
