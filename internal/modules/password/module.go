package password

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/bombsquad-bot/bombsquad/internal/edgework"
	"github.com/bombsquad-bot/bombsquad/internal/module"
)

const (
	columns        = 5
	lettersPerSpin = 6
)

var words = []string{
	"about", "after", "again", "below", "could",
	"every", "first", "found", "great", "house",
	"large", "learn", "never", "other", "place",
	"plant", "point", "right", "small", "sound",
	"spell", "still", "study", "their", "there",
	"these", "thing", "think", "three", "water",
	"where", "which", "world", "would", "write",
}

// Module holds one Password instance: the spinner columns, the current
// position of each, and the solution word.
type Module struct {
	module.Base
	solution  string
	spinners  [columns][]byte
	positions [columns]int
}

// Register adds the module factory to the registry.
func Register(reg *module.Registry) {
	if reg == nil {
		return
	}
	reg.MustRegister("password", New)
}

// New constructs an uninitialized Password module.
func New() module.Module {
	return &Module{Base: module.NewBase(module.Info{
		ID:            "password",
		Name:          "Password",
		Help:          "`{cmd} cycle 3` - cycle the third column. `{cmd} cycle 1 3 5` or `{cmd} cycle 135` - cycle multiple columns. `{cmd} cycle` - cycle all columns. `{cmd} submit water` - submit a word.",
		SolveScore:    2,
		StrikePenalty: 1,
		Vanilla:       true,
	})}
}

// Init picks a solution word, then builds columns that can spell it. Any
// other word the raw draw could also spell is broken by removing one of its
// letters from a column where it differs from the solution, so the "exactly
// one spellable word" invariant holds by construction.
func (m *Module) Init(_ *edgework.Context, rng *rand.Rand) error {
	m.solution = words[rng.Intn(len(words))]
	var pool [columns][]byte
	for i := range pool {
		pool[i] = []byte("abcdefghijklmnopqrstuvwxyz")
	}

	for _, word := range words {
		if word == m.solution || !spellable(pool[:], word) {
			continue
		}
		var wrong []int
		for pos := 0; pos < columns; pos++ {
			if word[pos] != m.solution[pos] {
				wrong = append(wrong, pos)
			}
		}
		position := wrong[rng.Intn(len(wrong))]
		pool[position] = remove(pool[position], word[position])
	}

	for pos := 0; pos < columns; pos++ {
		candidates := remove(pool[pos], m.solution[pos])
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		column := append([]byte{}, candidates[:lettersPerSpin-1]...)
		column = append(column, m.solution[pos])
		rng.Shuffle(len(column), func(i, j int) {
			column[i], column[j] = column[j], column[i]
		})
		m.spinners[pos] = column
	}

	if !m.onlyMatch() {
		return fmt.Errorf("password: column synthesis left more than one spellable word")
	}
	return nil
}

func spellable(pool [][]byte, word string) bool {
	for pos := 0; pos < columns; pos++ {
		if !strings.Contains(string(pool[pos]), string(word[pos])) {
			return false
		}
	}
	return true
}

func remove(set []byte, letter byte) []byte {
	out := make([]byte, 0, len(set))
	for _, candidate := range set {
		if candidate != letter {
			out = append(out, candidate)
		}
	}
	return out
}

func (m *Module) onlyMatch() bool {
	matches := 0
	for _, word := range words {
		ok := true
		for pos := 0; pos < columns; pos++ {
			if !strings.Contains(string(m.spinners[pos]), string(word[pos])) {
				ok = false
				break
			}
		}
		if ok {
			matches++
		}
	}
	return matches == 1
}

// Handle processes cycle/submit. Cycling accumulates with no outcome;
// submitting the wrong word strikes, a word the columns cannot spell is an
// invalid submission.
func (m *Module) Handle(_ *edgework.Context, cmd module.Command) (module.Result, error) {
	switch cmd.Verb {
	case "cycle":
		return m.cycle(cmd.Args)
	case "submit":
		return m.submit(cmd.Args)
	default:
		return module.Result{}, module.ErrUnknownVerb
	}
}

func (m *Module) cycle(args []string) (module.Result, error) {
	var targets []int
	for _, arg := range args {
		for _, r := range arg {
			if r < '1' || r > '0'+columns {
				return module.Result{
					Message: fmt.Sprintf("There's no column %c, there's only 1 through %d.", r, columns),
				}, nil
			}
			targets = append(targets, int(r-'1'))
		}
	}
	if len(targets) == 0 {
		for pos := 0; pos < columns; pos++ {
			targets = append(targets, pos)
		}
	}
	for _, pos := range targets {
		m.positions[pos] = (m.positions[pos] + 1) % lettersPerSpin
	}
	return module.Result{Outcome: module.OutcomeNone, Render: true}, nil
}

func (m *Module) submit(args []string) (module.Result, error) {
	if len(args) != 1 || len(args[0]) != columns {
		return module.Result{}, module.ErrUnknownVerb
	}
	word := strings.ToLower(args[0])
	for pos := 0; pos < columns; pos++ {
		index := strings.IndexByte(string(m.spinners[pos]), word[pos])
		if index < 0 {
			return module.Result{
				Outcome: module.OutcomeInvalid,
				Message: fmt.Sprintf("The columns cannot spell %q.", word),
			}, nil
		}
		m.positions[pos] = index
	}
	if word == m.solution {
		return module.Result{Outcome: module.OutcomeSolved, Render: true}, nil
	}
	return module.Result{Outcome: module.OutcomeStrike, Render: true}, nil
}

// View shows the current letter of each spinner.
func (m *Module) View(*edgework.Context) string {
	var sb strings.Builder
	sb.WriteString(`<svg viewBox="0 0 348 348" fill="none" stroke="none">`)
	sb.WriteString(`<path stroke="#000" fill="#fff" d="M5 5h338v338h-338z"/>`)
	for pos := 0; pos < columns; pos++ {
		letter := m.spinners[pos][m.positions[pos]]
		fmt.Fprintf(&sb, `<text fill="#000" text-anchor="middle" x="%d" y="188" style="font-family:sans-serif;font-size:28pt;">%s</text>`, 74+pos*50, strings.ToUpper(string(letter)))
	}
	sb.WriteString(`</svg>`)
	return sb.String()
}
