package router

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/bombsquad-bot/bombsquad/internal/bomb"
	"github.com/bombsquad-bot/bombsquad/internal/logging"
	"github.com/bombsquad-bot/bombsquad/internal/module"
	"github.com/bombsquad-bot/bombsquad/internal/scores"
	"github.com/bombsquad-bot/bombsquad/internal/transport"
)

// Leaderboard is the read side of the score store. A nil Leaderboard disables
// the leaderboard commands.
type Leaderboard interface {
	Page(page int) ([]scores.Entry, int, error)
	Rank(actor string) (scores.Entry, bool, error)
}

// Settings carries the router tunables.
type Settings struct {
	Session      bomb.Config
	ModuleCap    int     // per-bomb module limit for `run`
	CommandRate  float64 // commands per second per actor
	CommandBurst int
}

func (s *Settings) normalize() {
	if s.ModuleCap < 1 {
		s.ModuleCap = bomb.ModuleCap
	}
	if s.CommandRate <= 0 {
		s.CommandRate = 4
	}
	if s.CommandBurst < 1 {
		s.CommandBurst = 8
	}
}

// Router dispatches inbound commands.
type Router struct {
	log      zerolog.Logger
	settings Settings
	modules  *module.Registry
	sessions *bomb.Registry
	sender   transport.Sender
	sink     scores.Sink
	board    Leaderboard

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rng      *rand.Rand
}

// New constructs a router. board may be nil.
func New(settings Settings, modules *module.Registry, sessions *bomb.Registry, sender transport.Sender, sink scores.Sink, board Leaderboard) *Router {
	settings.normalize()
	return &Router{
		log:      logging.WithComponent("router"),
		settings: settings,
		modules:  modules,
		sessions: sessions,
		sender:   sender,
		sink:     sink,
		board:    board,
		limiters: map[string]*rate.Limiter{},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *Router) reply(channel, actor, format string, args ...any) {
	if err := r.sender.Send(channel, "@"+actor+" "+fmt.Sprintf(format, args...), nil); err != nil {
		r.log.Warn().Err(err).Str("channel", channel).Msg("send failed")
	}
}

func (r *Router) limiter(actor string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	lim, ok := r.limiters[actor]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(r.settings.CommandRate), r.settings.CommandBurst)
		r.limiters[actor] = lim
	}
	return lim
}

// Route handles one inbound message. Panics from module handlers are
// recovered here, logged with channel and command context, and answered with
// a generic failure.
func (r *Router) Route(channel, actor, text string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Str("channel", channel).Str("actor", actor).Str("text", text).
				Interface("panic", rec).Msg("command handler panicked")
			r.reply(channel, actor, "Something went wrong handling that command.")
		}
	}()

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}
	if !r.limiter(actor).Allow() {
		r.reply(channel, actor, "Slow down! You're sending commands too quickly.")
		return
	}

	head := strings.ToLower(fields[0])
	args := fields[1:]

	switch head {
	case "run":
		r.handleRun(channel, actor, args)
	case "modules":
		r.handleModules(channel, actor)
	case "leaderboard", "lb":
		r.handleLeaderboard(channel, actor, args)
	case "rank":
		r.handleRank(channel, actor)
	case "shutdown":
		r.handleShutdown(channel, actor, args)
	default:
		r.routeSession(channel, actor, head, args)
	}
}

func (r *Router) routeSession(channel, actor, head string, args []string) {
	index, indexErr := strconv.Atoi(head)
	sessionVerbs := map[string]bool{
		"status": true, "edgework": true, "unclaimed": true, "claimed": true,
		"claims": true, "find": true, "claimany": true, "claimanyview": true,
		"cvany": true, "detonate": true,
	}
	if indexErr != nil && !sessionVerbs[head] {
		r.reply(channel, actor, "Unknown command `%s`.", head)
		return
	}

	sess, ok := r.sessions.Get(channel)
	if !ok {
		r.reply(channel, actor, "No bomb is currently running in this channel. `run` starts one.")
		return
	}

	if indexErr == nil {
		verb := ""
		if len(args) > 0 {
			verb = strings.ToLower(args[0])
			args = args[1:]
		}
		sess.Dispatch(actor, index, verb, args)
		return
	}

	switch head {
	case "status":
		sess.Status(actor)
	case "edgework":
		sess.Edgework(actor)
	case "unclaimed":
		sess.Unclaimed(actor)
	case "claimed":
		sess.Claimed(actor)
	case "claims":
		sess.Claims(actor)
	case "find":
		sess.Find(actor, args)
	case "claimany":
		sess.ClaimAny(actor, false)
	case "claimanyview", "cvany":
		sess.ClaimAny(actor, true)
	case "detonate":
		sess.Detonate(actor)
	}
}

func (r *Router) handleRun(channel, actor string, args []string) {
	var opts []bomb.Option
	if len(args) > 0 && strings.EqualFold(args[0], "coop") {
		opts = append(opts, bomb.WithCooperative())
		args = args[1:]
	}
	if len(args) == 0 {
		r.reply(channel, actor, "Usage: `run [coop] <module count> <distribution> [-<veto> ...]` or `run [coop] <module>[*<count>] ...`.\nDistributions: %s.\n`modules` lists the available modules.",
			strings.Join(bomb.Distributions(), ", "))
		return
	}

	r.mu.Lock()
	rng := r.rng
	r.mu.Unlock()
	mods, err := bomb.ParseManifest(r.modules, args, r.settings.ModuleCap, rng)
	if err != nil {
		r.replyError(channel, actor, err)
		return
	}

	sess, err := r.sessions.Start(channel, r.settings.Session, mods, r.sender, r.sink, opts...)
	if err != nil {
		r.replyError(channel, actor, err)
		return
	}
	sess.Announce()
}

func (r *Router) replyError(channel, actor string, err error) {
	var ue bomb.UserError
	switch {
	case errors.As(err, &ue):
		r.reply(channel, actor, "%s", string(ue))
	case errors.Is(err, bomb.ErrSessionExists):
		r.reply(channel, actor, "A bomb is already ticking in this channel!")
	case errors.Is(err, bomb.ErrShutdown):
		r.reply(channel, actor, "The bot is in shutdown mode. No new bombs can be started.")
	default:
		r.log.Error().Err(err).Str("channel", channel).Msg("command failed")
		r.reply(channel, actor, "Something went wrong handling that command.")
	}
}

func (r *Router) handleModules(channel, actor string) {
	format := func(ids []string) string {
		if len(ids) == 0 {
			return "none"
		}
		quoted := make([]string, 0, len(ids))
		for _, id := range ids {
			quoted = append(quoted, "`"+id+"`")
		}
		return strings.Join(quoted, ", ")
	}
	r.reply(channel, actor, "Available modules:\nVanilla: %s\nModded: %s",
		format(r.modules.Vanilla(true)), format(r.modules.Vanilla(false)))
}

func (r *Router) handleLeaderboard(channel, actor string, args []string) {
	if r.board == nil {
		r.reply(channel, actor, "No leaderboard is configured.")
		return
	}
	page := 1
	if len(args) == 1 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 1 {
			r.reply(channel, actor, "Usage: `leaderboard [<page number>]`. Default: page 1. Aliases: `lb`.")
			return
		}
		page = parsed
	} else if len(args) > 1 {
		r.reply(channel, actor, "Usage: `leaderboard [<page number>]`. Default: page 1. Aliases: `lb`.")
		return
	}

	entries, pages, err := r.board.Page(page)
	if errors.Is(err, scores.ErrEmptyLeaderboard) {
		r.reply(channel, actor, "The leaderboard is empty. Change it by solving a module!")
		return
	}
	if err != nil {
		if pages > 0 {
			r.reply(channel, actor, "B... but the leaderboard has only %d %s!", pages, pluralize("page", pages))
			return
		}
		r.log.Error().Err(err).Msg("leaderboard query failed")
		r.reply(channel, actor, "Something went wrong handling that command.")
		return
	}

	lines := []string{fmt.Sprintf("Leaderboard page %d of %d:", page, pages)}
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%d. %s - %d solves, %d strikes, %d points",
			e.Position, e.Username, e.Solves, e.Strikes, e.Points))
	}
	r.reply(channel, actor, "%s", strings.Join(lines, "\n"))
}

func (r *Router) handleRank(channel, actor string) {
	if r.board == nil {
		r.reply(channel, actor, "No leaderboard is configured.")
		return
	}
	entry, ok, err := r.board.Rank(actor)
	if err != nil {
		r.log.Error().Err(err).Msg("rank query failed")
		r.reply(channel, actor, "Something went wrong handling that command.")
		return
	}
	if !ok {
		r.reply(channel, actor, "Sorry, you have to play this game to be included in the leaderboard.")
		return
	}
	r.reply(channel, actor, "You're #%d with %d solves, %d strikes and %d points.",
		entry.Position, entry.Solves, entry.Strikes, entry.Points)
}

func (r *Router) handleShutdown(channel, actor string, args []string) {
	if len(args) > 0 {
		r.reply(channel, actor, "Trailing arguments.")
		return
	}
	if r.settings.Session.Owner == "" || actor != r.settings.Session.Owner {
		r.reply(channel, actor, "You don't have permission to use this command.")
		return
	}
	idle := r.sessions.Shutdown()
	for _, sess := range r.sessions.Sessions() {
		if err := r.sender.Send(sess.Channel(), "The bot is going into shutdown mode. No new bombs can be started and the bot will go offline when all currently running bombs are solved or detonated.", nil); err != nil {
			r.log.Warn().Err(err).Str("channel", sess.Channel()).Msg("shutdown broadcast failed")
		}
	}
	if idle {
		r.reply(channel, actor, "Shutdown complete.")
		return
	}
	r.reply(channel, actor, "Shutdown mode activated. No new bombs can be started; the process exits when all running bombs end.")
}

func pluralize(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
