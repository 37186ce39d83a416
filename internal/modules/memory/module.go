package memory

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/bombsquad-bot/bombsquad/internal/edgework"
	"github.com/bombsquad-bot/bombsquad/internal/module"
)

const stages = 5

// Module holds one Memory instance. Everything needed to recompute the next
// expected press lives here: the current display, button layout, and the
// position/label history of accepted presses.
type Module struct {
	module.Base
	rng *rand.Rand

	stage     int
	display   int   // 1..4
	buttons   []int // labels 1..4, shuffled per stage
	positions []int // accepted presses by position (0-based)
	labels    []int // accepted presses by label
}

// Register adds the module factory to the registry.
func Register(reg *module.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister("memory", New)
}

// New constructs an uninitialized Memory module.
func New() module.Module {
	return &Module{Base: module.NewBase(module.Info{
		ID:            "memory",
		Name:          "Memory",
		Help:          "`{cmd} pos 2` or `{cmd} position 2` - press the button in the second position. `{cmd} lab 4` or `{cmd} label 4` - press the button labeled \"4\".",
		SolveScore:    4,
		StrikePenalty: 1,
		Vanilla:       true,
	})}
}

// Init starts at stage one with a fresh display. The per-instance rng is kept
// so wrong presses can re-randomize deterministically under a seeded source.
func (m *Module) Init(_ *edgework.Context, rng *rand.Rand) error {
	m.rng = rng
	m.buttons = []int{1, 2, 3, 4}
	m.reset()
	return nil
}

func (m *Module) reset() {
	m.stage = 0
	m.positions = nil
	m.labels = nil
	m.randomize()
}

func (m *Module) randomize() {
	m.display = 1 + m.rng.Intn(4)
	m.rng.Shuffle(len(m.buttons), func(i, j int) {
		m.buttons[i], m.buttons[j] = m.buttons[j], m.buttons[i]
	})
}

// Handle processes position/label presses.
func (m *Module) Handle(_ *edgework.Context, cmd module.Command) (module.Result, error) {
	switch cmd.Verb {
	case "position", "pos":
		position, ok := singleDigit(cmd.Args)
		if !ok {
			return module.Result{}, module.ErrUnknownVerb
		}
		if position < 1 || position > 4 {
			return module.Result{Message: "There are only four positions: 1-4."}, nil
		}
		return m.press(position - 1), nil
	case "label", "lab":
		label, ok := singleDigit(cmd.Args)
		if !ok {
			return module.Result{}, module.ErrUnknownVerb
		}
		position := m.labelPosition(label)
		if position < 0 {
			return module.Result{Message: "There are only four labels: 1-4."}, nil
		}
		return m.press(position), nil
	default:
		return module.Result{}, module.ErrUnknownVerb
	}
}

func singleDigit(args []string) (int, bool) {
	if len(args) != 1 {
		return 0, false
	}
	value, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, false
	}
	return value, true
}

func (m *Module) labelPosition(label int) int {
	for i, candidate := range m.buttons {
		if candidate == label {
			return i
		}
	}
	return -1
}

func (m *Module) press(position int) module.Result {
	expected := m.solution()
	if position != expected {
		m.reset()
		return module.Result{Outcome: module.OutcomeStrike, Render: true}
	}
	m.positions = append(m.positions, position)
	m.labels = append(m.labels, m.buttons[position])
	m.stage++
	if m.stage == stages {
		return module.Result{Outcome: module.OutcomeSolved, Render: true}
	}
	m.randomize()
	return module.Result{
		Outcome: module.OutcomeNone,
		Message: fmt.Sprintf("Stage %d of %d.", m.stage+1, stages),
		Render:  true,
	}
}

// solution ports the vanilla Memory stage table. The expected press at stage
// N is a function of the display, the current layout, and the history of
// stages 0..N-1 only.
func (m *Module) solution() int {
	switch m.stage {
	case 0:
		return []int{1, 1, 2, 3}[m.display-1]
	case 1:
		switch m.display {
		case 1:
			return m.labelPosition(4)
		case 3:
			return 0
		default:
			return m.positions[0]
		}
	case 2:
		switch m.display {
		case 1:
			return m.labelPosition(m.labels[1])
		case 2:
			return m.labelPosition(m.labels[0])
		case 3:
			return 2
		default:
			return m.labelPosition(4)
		}
	case 3:
		switch m.display {
		case 1:
			return m.positions[0]
		case 2:
			return 0
		default:
			return m.positions[1]
		}
	default:
		return m.labelPosition(m.labels[[]int{0, 1, 3, 2}[m.display-1]])
	}
}

// View shows the display digit and the current button labels.
func (m *Module) View(*edgework.Context) string {
	var sb strings.Builder
	sb.WriteString(`<svg viewBox="0 0 348 348" fill="#fff" stroke="none">`)
	fmt.Fprintf(&sb, `<text x="142" y="165" fill="#000" text-anchor="middle" style="font-size:64pt;font-family:sans-serif;">%d</text>`, m.display)
	for i, label := range m.buttons {
		fmt.Fprintf(&sb, `<text x="%d" y="260" fill="#000" text-anchor="middle" style="font-size:32pt;font-family:sans-serif;">%d</text>`, 54+i*59, label)
	}
	for stage := 0; stage < stages; stage++ {
		fill := "#fff"
		if m.stage > stage {
			fill = "#0f0"
		}
		fmt.Fprintf(&sb, `<circle cx="%d" cy="40" r="8" fill="%s" stroke="#000"/>`, 260+stage*18, fill)
	}
	sb.WriteString(`</svg>`)
	return sb.String()
}
