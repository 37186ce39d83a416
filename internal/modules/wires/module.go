package wires

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/bombsquad-bot/bombsquad/internal/edgework"
	"github.com/bombsquad-bot/bombsquad/internal/module"
)

// Color is a wire color.
type Color string

const (
	Black  Color = "black"
	Blue   Color = "blue"
	Red    Color = "red"
	White  Color = "white"
	Yellow Color = "yellow"
)

var colors = []Color{Black, Blue, Red, White, Yellow}

var colorFill = map[Color]string{
	Black:  "#000",
	Blue:   "#00f",
	Red:    "#f00",
	White:  "#fff",
	Yellow: "#ff0",
}

// Module holds one Wires instance: the drawn colors and which are cut.
type Module struct {
	module.Base
	colors []Color
	cut    []bool
}

// Register adds the module factory to the registry.
func Register(reg *module.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister("wires", New)
}

// New constructs an uninitialized Wires module.
func New() module.Module {
	return &Module{Base: module.NewBase(module.Info{
		ID:            "wires",
		Name:          "Wires",
		Help:          "`{cmd} cut 3` to cut the third wire. Empty spaces are not counted.",
		SolveScore:    1,
		StrikePenalty: 1,
		Vanilla:       true,
	})}
}

// Init draws between three and six wires.
func (m *Module) Init(_ *edgework.Context, rng *rand.Rand) error {
	count := 3 + rng.Intn(4)
	m.colors = make([]Color, count)
	for i := range m.colors {
		m.colors[i] = colors[rng.Intn(len(colors))]
	}
	m.cut = make([]bool, count)
	return nil
}

// Handle processes the "cut" verb. The solution is a pure function of the
// initial draw and the edgework, so a wrong cut is an immediate strike.
func (m *Module) Handle(ctx *edgework.Context, cmd module.Command) (module.Result, error) {
	if cmd.Verb != "cut" {
		return module.Result{}, module.ErrUnknownVerb
	}
	if len(cmd.Args) != 1 {
		return module.Result{}, module.ErrUnknownVerb
	}
	number, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return module.Result{}, module.ErrUnknownVerb
	}
	if number == 0 {
		return module.Result{Message: "Arrays start at 0, but wires start at 1."}, nil
	}
	wire := number - 1
	if wire < 0 || wire >= len(m.colors) {
		return module.Result{
			Message: fmt.Sprintf("There are only %d wires. How on earth am I supposed to cut wire %d?", len(m.colors), number),
		}, nil
	}
	if m.cut[wire] {
		return module.Result{
			Outcome: module.OutcomeInvalid,
			Message: fmt.Sprintf("Wire %d has already been cut.", number),
		}, nil
	}
	expected := m.solution(ctx)
	m.cut[wire] = true
	if wire == expected {
		return module.Result{Outcome: module.OutcomeSolved, Render: true}, nil
	}
	return module.Result{Outcome: module.OutcomeStrike, Render: true}, nil
}

// solution ports the vanilla Wires decision table.
func (m *Module) solution(ctx *edgework.Context) int {
	count := func(c Color) int {
		total := 0
		for _, candidate := range m.colors {
			if candidate == c {
				total++
			}
		}
		return total
	}
	last := func(c Color) int {
		for i := len(m.colors) - 1; i >= 0; i-- {
			if m.colors[i] == c {
				return i
			}
		}
		return -1
	}
	serialOdd := ctx.LastDigitOdd()

	switch len(m.colors) {
	case 3:
		switch {
		case count(Red) == 0:
			return 1
		case m.colors[len(m.colors)-1] == White:
			return 2
		case count(Blue) > 1:
			return last(Blue)
		default:
			return 2
		}
	case 4:
		switch {
		case count(Red) > 1 && serialOdd:
			return last(Red)
		case m.colors[len(m.colors)-1] == Yellow && count(Red) == 0:
			return 0
		case count(Blue) == 1:
			return 0
		case count(Yellow) > 1:
			return 3
		default:
			return 1
		}
	case 5:
		switch {
		case m.colors[len(m.colors)-1] == Black && serialOdd:
			return 3
		case count(Red) == 1 && count(Yellow) > 1:
			return 0
		case count(Black) == 0:
			return 1
		default:
			return 0
		}
	default:
		switch {
		case count(Yellow) == 0 && serialOdd:
			return 2
		case count(Yellow) == 1 && count(White) > 1:
			return 3
		case count(Red) == 0:
			return 5
		default:
			return 3
		}
	}
}

// View renders the wires left to right; cut wires are drawn broken.
func (m *Module) View(*edgework.Context) string {
	var sb strings.Builder
	sb.WriteString(`<svg viewBox="0 0 348 348" fill="#fff" stroke="none" stroke-width="4">`)
	for i, color := range m.colors {
		y := 60 + i*48
		fill := colorFill[color]
		if m.cut[i] {
			fmt.Fprintf(&sb, `<line x1="30" y1="%d" x2="150" y2="%d" stroke="%s"/>`, y, y, fill)
			fmt.Fprintf(&sb, `<line x1="200" y1="%d" x2="318" y2="%d" stroke="%s"/>`, y, y, fill)
		} else {
			fmt.Fprintf(&sb, `<line x1="30" y1="%d" x2="318" y2="%d" stroke="%s"/>`, y, y, fill)
		}
	}
	sb.WriteString(`</svg>`)
	return sb.String()
}
