package password

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/bombsquad-bot/bombsquad/internal/edgework"
	"github.com/bombsquad-bot/bombsquad/internal/module"
)

func testContext(t *testing.T) *edgework.Context {
	t.Helper()
	ctx, err := edgework.Generate(rand.New(rand.NewSource(21)))
	if err != nil {
		t.Fatalf("edgework: %v", err)
	}
	return ctx
}

func initialized(t *testing.T, seed int64) *Module {
	t.Helper()
	mod := New().(*Module)
	if err := mod.Init(testContext(t), rand.New(rand.NewSource(seed))); err != nil {
		t.Fatalf("init: %v", err)
	}
	return mod
}

func TestExactlyOneSpellableWord(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		mod := initialized(t, seed)
		matches := 0
		for _, word := range words {
			ok := true
			for pos := 0; pos < columns; pos++ {
				if !strings.Contains(string(mod.spinners[pos]), string(word[pos])) {
					ok = false
					break
				}
			}
			if ok {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("seed %d: %d spellable words, want exactly 1", seed, matches)
		}
	}
}

func TestColumnShape(t *testing.T) {
	mod := initialized(t, 7)
	for pos, column := range mod.spinners {
		if len(column) != lettersPerSpin {
			t.Fatalf("column %d has %d letters, want %d", pos+1, len(column), lettersPerSpin)
		}
		seen := map[byte]bool{}
		for _, letter := range column {
			if seen[letter] {
				t.Fatalf("column %d repeats %q", pos+1, letter)
			}
			seen[letter] = true
		}
		if !seen[mod.solution[pos]] {
			t.Fatalf("column %d cannot produce the solution letter %q", pos+1, mod.solution[pos])
		}
	}
}

func TestSubmitSolutionSolves(t *testing.T) {
	ctx := testContext(t)
	mod := initialized(t, 8)
	res, err := mod.Handle(ctx, module.Command{Verb: "submit", Args: []string{mod.solution}})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Outcome != module.OutcomeSolved {
		t.Fatalf("outcome = %s, want solved", res.Outcome)
	}
	for pos := 0; pos < columns; pos++ {
		if mod.spinners[pos][mod.positions[pos]] != mod.solution[pos] {
			t.Fatalf("column %d not left on the solution letter", pos+1)
		}
	}
}

func TestSubmitWrongSpellableWordStrikes(t *testing.T) {
	ctx := testContext(t)
	mod := initialized(t, 9)
	// Any word made from the columns that is not the solution is wrong. Build
	// one by taking the solution and swapping the last column to another of
	// its letters.
	wrong := []byte(mod.solution)
	for _, letter := range mod.spinners[columns-1] {
		if letter != mod.solution[columns-1] {
			wrong[columns-1] = letter
			break
		}
	}
	res, err := mod.Handle(ctx, module.Command{Verb: "submit", Args: []string{string(wrong)}})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Outcome != module.OutcomeStrike {
		t.Fatalf("outcome = %s, want strike", res.Outcome)
	}
}

func TestSubmitUnspellableWordIsInvalid(t *testing.T) {
	ctx := testContext(t)
	mod := initialized(t, 10)
	target := ""
	for _, word := range words {
		if word != mod.solution {
			spell := true
			for pos := 0; pos < columns; pos++ {
				if !strings.Contains(string(mod.spinners[pos]), string(word[pos])) {
					spell = false
					break
				}
			}
			if !spell {
				target = word
				break
			}
		}
	}
	if target == "" {
		t.Fatal("no unspellable word found")
	}
	res, err := mod.Handle(ctx, module.Command{Verb: "submit", Args: []string{target}})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Outcome != module.OutcomeInvalid {
		t.Fatalf("outcome = %s, want invalid", res.Outcome)
	}
}

func TestCycleAdvancesColumns(t *testing.T) {
	ctx := testContext(t)
	mod := initialized(t, 11)
	before := mod.positions
	res, err := mod.Handle(ctx, module.Command{Verb: "cycle", Args: []string{"13"}})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Outcome != module.OutcomeNone || !res.Render {
		t.Fatalf("cycle result = %+v", res)
	}
	for pos := 0; pos < columns; pos++ {
		want := before[pos]
		if pos == 0 || pos == 2 {
			want = (want + 1) % lettersPerSpin
		}
		if mod.positions[pos] != want {
			t.Fatalf("column %d position = %d, want %d", pos+1, mod.positions[pos], want)
		}
	}

	before = mod.positions
	if _, err := mod.Handle(ctx, module.Command{Verb: "cycle"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	for pos := 0; pos < columns; pos++ {
		if mod.positions[pos] != (before[pos]+1)%lettersPerSpin {
			t.Fatalf("bare cycle should advance every column")
		}
	}
}

func TestCycleRejectsBadColumn(t *testing.T) {
	ctx := testContext(t)
	mod := initialized(t, 12)
	res, err := mod.Handle(ctx, module.Command{Verb: "cycle", Args: []string{"6"}})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Message == "" || res.Outcome != module.OutcomeNone {
		t.Fatalf("expected a harmless reply, got %+v", res)
	}
	if _, err := mod.Handle(ctx, module.Command{Verb: "press"}); !errors.Is(err, module.ErrUnknownVerb) {
		t.Fatalf("expected ErrUnknownVerb, got %v", err)
	}
}
