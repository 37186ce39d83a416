package module

import (
	"fmt"
	"math/rand"

	"github.com/bombsquad-bot/bombsquad/internal/edgework"
)

// Info describes a puzzle type's identity and scoring.
type Info struct {
	// ID is the manifest selector, e.g. "wires".
	ID   string
	Name string
	// Help explains the puzzle's verbs; "{cmd}" is replaced with the
	// module's channel prefix when shown.
	Help          string
	SolveScore    int
	StrikePenalty int
	// Vanilla marks puzzles from the base game; manifests distribute
	// between vanilla and modded pools.
	Vanilla bool
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("module: id is required")
	}
	if i.Name == "" {
		return fmt.Errorf("module: name is required for %s", i.ID)
	}
	if i.SolveScore <= 0 {
		return fmt.Errorf("module: solve score must be positive for %s", i.ID)
	}
	if i.StrikePenalty <= 0 {
		return fmt.Errorf("module: strike penalty must be positive for %s", i.ID)
	}
	return nil
}

// Outcome classifies the result of one handled command.
type Outcome int

const (
	// OutcomeNone is an accepted action that neither solves nor strikes.
	OutcomeNone Outcome = iota
	// OutcomeSolved completes the module.
	OutcomeSolved
	// OutcomeStrike is a wrong action; the shared strike counter grows.
	OutcomeStrike
	// OutcomeInvalid is a malformed or futile submission; it costs a small
	// score penalty but no strike.
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeSolved:
		return "solved"
	case OutcomeStrike:
		return "strike"
	case OutcomeInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Command is one actor input aimed at a module.
type Command struct {
	Actor string
	Verb  string
	Args  []string
}

// Result is what a module handler returns. Message is channel-facing text;
// Render asks the caller to attach a fresh view of the module.
type Result struct {
	Outcome Outcome
	Message string
	Render  bool
}

// Module is implemented by every puzzle type. Handle is never invoked
// concurrently for the same instance; the session's per-module lock
// guarantees that.
type Module interface {
	Info() Info
	// Init builds a self-consistent, solvable internal state. Where the
	// puzzle has a solvability invariant, Init must verify it and redraw
	// rather than leave an unsolvable instance.
	Init(ctx *edgework.Context, rng *rand.Rand) error
	Handle(ctx *edgework.Context, cmd Command) (Result, error)
	// View returns an SVG snapshot of the visible state for the render
	// boundary. An empty string means "nothing to show".
	View(ctx *edgework.Context) string
}
