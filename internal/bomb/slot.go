package bomb

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bombsquad-bot/bombsquad/internal/module"
	"github.com/bombsquad-bot/bombsquad/internal/transport"
)

// takeover is a pending ownership challenge. The generation counter defeats
// the race between a stopped timer and a callback that already fired: a
// callback whose generation no longer matches does nothing.
type takeover struct {
	challenger string
	deadline   time.Time
	gen        uint64
	timer      *time.Timer
}

type event struct {
	at  time.Duration
	msg string
}

// Slot holds one module instance and everything the session tracks about it.
// All mutation happens under mu; commands against the same slot never
// interleave, commands against different slots proceed concurrently.
type Slot struct {
	session *Session
	index   int // 1-based
	mod     module.Module

	mu      sync.Mutex
	solved  bool
	owner   string
	pending *takeover
	gen     uint64
	events  []event
}

func (sl *Slot) name() string {
	return fmt.Sprintf("%s (#%d)", sl.mod.Info().Name, sl.index)
}

// logEvent records a transcript line. Callers hold sl.mu.
func (sl *Slot) logEvent(format string, args ...any) {
	sl.events = append(sl.events, event{
		at:  sl.session.elapsed(),
		msg: fmt.Sprintf(format, args...),
	})
}

// transcript renders the slot's event log. Called during terminal dispatch.
func (sl *Slot) transcript() string {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	lines := make([]string, 0, len(sl.events))
	for _, e := range sl.events {
		lines = append(lines, fmt.Sprintf("[%s@%s] %s", formatDuration(e.at), sl.name(), e.msg))
	}
	return strings.Join(lines, "\n")
}

// snapshot returns the fields the session's listing commands need.
func (sl *Slot) snapshot() (solved bool, owner string) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.solved, sl.owner
}

// handle runs one command against this slot. Terminal dispatch happens after
// the slot lock is released; applyOutcome only reports that the last module
// was solved.
func (sl *Slot) handle(actor, verb string, args []string) {
	lastSolved := func() bool {
		sl.mu.Lock()
		defer sl.mu.Unlock()
		return sl.handleLocked(actor, verb, args)
	}()
	if lastSolved {
		sl.session.finish(StateDefused)
	}
}

func (sl *Slot) handleLocked(actor, verb string, args []string) bool {
	sl.logEvent("%s: %s %s", actor, verb, strings.Join(args, " "))
	switch verb {
	case "view":
		sl.sendView(actor + " " + sl.name())
		return false
	case "claim":
		if sl.claimLocked(actor) {
			sl.session.reply(actor, "%s is yours now.", sl.name())
		}
		return false
	case "claimview", "cv":
		if sl.claimLocked(actor) {
			sl.sendView(fmt.Sprintf("@%s %s is yours now.", actor, sl.name()))
		}
		return false
	case "unclaim":
		sl.unclaimLocked(actor)
		return false
	case "take":
		sl.takeLocked(actor)
		return false
	case "confirm":
		sl.confirmLocked(actor)
		return false
	case "player":
		sl.playerLocked(actor)
		return false
	default:
		return sl.puzzleLocked(actor, verb, args)
	}
}

func (sl *Slot) puzzleLocked(actor, verb string, args []string) bool {
	if sl.solved {
		sl.session.reply(actor, "%s has already been solved.", sl.name())
		return false
	}
	if sl.owner != "" && sl.owner != actor {
		sl.session.reply(actor, "%s has been claimed by %s.", sl.name(), sl.owner)
		return false
	}

	res, err := sl.mod.Handle(sl.session.edge, module.Command{Actor: actor, Verb: verb, Args: args})
	if errors.Is(err, module.ErrUnknownVerb) {
		sl.session.reply(actor, "%s", sl.mod.Info().Help)
		return false
	}
	if err != nil {
		sl.session.log.Error().Err(err).Int("module", sl.index).Str("actor", actor).Msg("module handler failed")
		sl.session.reply(actor, "Something went wrong handling that command.")
		return false
	}
	return sl.applyOutcome(actor, res)
}

// applyOutcome applies a module result under sl.mu. It returns true when this
// solve completed the bomb; the caller fires termination after unlocking.
func (sl *Slot) applyOutcome(actor string, res module.Result) bool {
	info := sl.mod.Info()
	switch res.Outcome {
	case module.OutcomeSolved:
		sl.solved = true
		if sl.owner == "" {
			sl.owner = actor // retained for "solved by" display
		}
		sl.stopTakeoverLocked()
		sl.logEvent("module solved by %s", actor)

		s := sl.session
		s.mu.Lock()
		if s.owned[sl.owner] > 0 {
			s.owned[sl.owner]--
		}
		s.solvedCount++
		allSolved := s.solvedCount == len(s.slots)
		s.mu.Unlock()

		s.recordScore(func() error { return s.sink.RecordSolve(actor, info.SolveScore) })
		sl.sendView(fmt.Sprintf("@%s solved %s. %s been awarded.", actor, sl.name(), points(info.SolveScore)))
		return allSolved

	case module.OutcomeStrike:
		sl.logEvent("strike!")
		s := sl.session
		s.mu.Lock()
		s.strikes++
		s.mu.Unlock()

		s.recordScore(func() error { return s.sink.RecordStrike(actor, info.StrikePenalty) })
		sl.sendView(fmt.Sprintf("%s got a strike. -%d from @%s", sl.name(), info.StrikePenalty, actor))
		return false

	case module.OutcomeInvalid:
		sl.logEvent("invalid submission")
		s := sl.session
		s.recordScore(func() error { return s.sink.RecordPenalty(actor, 1) })
		msg := res.Message
		if msg == "" {
			msg = "That submission is not possible here."
		}
		sl.session.reply(actor, "%s", msg)
		return false

	default:
		if res.Render {
			sl.sendView("@" + actor + " " + res.Message)
		} else if res.Message != "" {
			sl.session.reply(actor, "%s", res.Message)
		}
		return false
	}
}

// claimLocked performs the claim transition; replies on every rejection and
// returns true only when ownership was granted.
func (sl *Slot) claimLocked(actor string) bool {
	s := sl.session
	if sl.solved {
		s.reply(actor, "%s has been solved already by %s.", sl.name(), sl.owner)
		return false
	}
	if sl.owner == actor {
		s.reply(actor, "You have already claimed %s.", sl.name())
		return false
	}
	if sl.owner != "" {
		s.reply(actor, "Sorry, %s has already been claimed by %s. If you think they have abandoned it, `%d take` takes it over.", sl.name(), sl.owner, sl.index)
		return false
	}

	s.mu.Lock()
	if s.owned[actor] >= s.cfg.ClaimBound {
		s.mu.Unlock()
		s.reply(actor, "Sorry, you can only claim %d modules at once. Try `claims`.", s.cfg.ClaimBound)
		return false
	}
	s.owned[actor]++
	s.mu.Unlock()

	sl.owner = actor
	sl.logEvent("claimed by %s", actor)
	return true
}

func (sl *Slot) unclaimLocked(actor string) {
	s := sl.session
	if sl.solved || sl.owner != actor {
		s.reply(actor, "You have not claimed %s, so you can't unclaim it.", sl.name())
		return
	}
	sl.owner = ""
	sl.stopTakeoverLocked()
	sl.logEvent("unclaimed by %s", actor)

	s.mu.Lock()
	if s.owned[actor] > 0 {
		s.owned[actor]--
	}
	s.mu.Unlock()
	s.reply(actor, "You have unclaimed %s.", sl.name())
}

func (sl *Slot) takeLocked(actor string) {
	s := sl.session
	switch {
	case sl.solved:
		s.reply(actor, "%s has already been solved.", sl.name())
	case sl.owner == "":
		s.reply(actor, "%s is not claimed by anybody. `%d claim` claims it.", sl.name(), sl.index)
	case sl.owner == actor:
		s.reply(actor, "You already claimed this module.")
	case sl.pending != nil:
		s.reply(actor, "%s has already issued a `take` command.", sl.pending.challenger)
	default:
		s.mu.Lock()
		atBound := s.owned[actor] >= s.cfg.ClaimBound
		s.mu.Unlock()
		if atBound {
			s.reply(actor, "Sorry, you can only claim %d modules at once. Try `claims`.", s.cfg.ClaimBound)
			return
		}
		sl.gen++
		t := &takeover{
			challenger: actor,
			deadline:   s.clock().Add(s.cfg.TakeoverTimeout),
			gen:        sl.gen,
		}
		gen := t.gen
		t.timer = s.afterFunc(s.cfg.TakeoverTimeout, func() { sl.expireTakeover(gen) })
		sl.pending = t
		sl.logEvent("takeover requested by %s", actor)
		s.send(fmt.Sprintf("@%s %s wants to take %s. `%d confirm` within %s keeps it yours.",
			sl.owner, actor, sl.name(), sl.index, s.cfg.TakeoverTimeout), nil)
	}
}

// expireTakeover runs in the timer goroutine. Only the pending takeover with
// a matching generation transfers ownership; a confirm that won the race has
// already bumped the generation.
func (sl *Slot) expireTakeover(gen uint64) {
	s := sl.session
	sl.mu.Lock()
	if sl.pending == nil || sl.pending.gen != gen || sl.solved {
		sl.mu.Unlock()
		return
	}
	previous := sl.owner
	challenger := sl.pending.challenger
	sl.owner = challenger
	sl.pending = nil
	sl.logEvent("takeover by %s from %s", challenger, previous)

	s.mu.Lock()
	if s.owned[previous] > 0 {
		s.owned[previous]--
	}
	s.owned[challenger]++
	s.mu.Unlock()
	sl.mu.Unlock()

	s.reply(challenger, "%s is now yours.", sl.name())
}

func (sl *Slot) confirmLocked(actor string) {
	s := sl.session
	if sl.pending == nil {
		s.reply(actor, "No takeover is pending for %s.", sl.name())
		return
	}
	if actor != sl.owner {
		s.reply(actor, "Only %s can confirm they are still working on %s.", sl.owner, sl.name())
		return
	}
	sl.stopTakeoverLocked()
	sl.logEvent("takeover confirmed away by %s", actor)
	s.send(fmt.Sprintf("@%s confirms they are still working on %s.", actor, sl.name()), nil)
}

// stopTakeoverLocked cancels any pending takeover and invalidates its timer
// callback. Callers hold sl.mu.
func (sl *Slot) stopTakeoverLocked() {
	if sl.pending == nil {
		return
	}
	sl.pending.timer.Stop()
	sl.pending = nil
	sl.gen++
}

func (sl *Slot) playerLocked(actor string) {
	s := sl.session
	switch {
	case sl.solved:
		s.reply(actor, "%s was solved by %s.", sl.name(), sl.owner)
	case sl.owner != "":
		s.reply(actor, "%s has been claimed by %s.", sl.name(), sl.owner)
	default:
		s.reply(actor, "%s is not claimed.", sl.name())
	}
}

// sendView sends text plus a fresh render of the module. Callers hold sl.mu.
func (sl *Slot) sendView(text string) {
	s := sl.session
	att := transport.RenderView(s.log, fmt.Sprintf("module-%d", sl.index), func() string {
		return sl.mod.View(s.edge)
	})
	s.send(text, att)
}

func points(n int) string {
	if n == 1 {
		return "1 point has"
	}
	return fmt.Sprintf("%d points have", n)
}
