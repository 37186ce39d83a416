package memory

import (
	"errors"
	"math/rand"
	"strconv"
	"testing"

	"github.com/bombsquad-bot/bombsquad/internal/edgework"
	"github.com/bombsquad-bot/bombsquad/internal/module"
)

func testContext(t *testing.T) *edgework.Context {
	t.Helper()
	ctx, err := edgework.Generate(rand.New(rand.NewSource(11)))
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

func pressExpected(t *testing.T, ctx *edgework.Context, mod *Module) module.Result {
	t.Helper()
	expected := mod.solution()
	res, err := mod.Handle(ctx, module.Command{Verb: "pos", Args: []string{strconv.Itoa(expected + 1)}})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	return res
}

func TestFiveCorrectPressesSolve(t *testing.T) {
	ctx := testContext(t)
	mod := initialized(t, 1)
	for stage := 0; stage < stages-1; stage++ {
		res := pressExpected(t, ctx, mod)
		if res.Outcome != module.OutcomeNone {
			t.Fatalf("stage %d outcome = %s, want none", stage, res.Outcome)
		}
	}
	res := pressExpected(t, ctx, mod)
	if res.Outcome != module.OutcomeSolved {
		t.Fatalf("final outcome = %s, want solved", res.Outcome)
	}
}

func TestWrongPressResetsProgress(t *testing.T) {
	ctx := testContext(t)
	mod := initialized(t, 2)
	if res := pressExpected(t, ctx, mod); res.Outcome != module.OutcomeNone {
		t.Fatalf("stage 1 outcome = %s", res.Outcome)
	}
	wrong := (mod.solution() + 1) % 4
	res, err := mod.Handle(ctx, module.Command{Verb: "pos", Args: []string{strconv.Itoa(wrong + 1)}})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Outcome != module.OutcomeStrike {
		t.Fatalf("outcome = %s, want strike", res.Outcome)
	}
	if mod.stage != 0 {
		t.Fatalf("stage = %d, want 0 after reset", mod.stage)
	}
	if len(mod.positions) != 0 || len(mod.labels) != 0 {
		t.Fatalf("history should be cleared after a wrong press")
	}
}

func TestLabelPressMatchesPosition(t *testing.T) {
	ctx := testContext(t)
	mod := initialized(t, 3)
	expected := mod.solution()
	label := mod.buttons[expected]
	res, err := mod.Handle(ctx, module.Command{Verb: "label", Args: []string{strconv.Itoa(label)}})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Outcome != module.OutcomeNone && res.Outcome != module.OutcomeSolved {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if mod.stage != 1 {
		t.Fatalf("stage = %d, want 1", mod.stage)
	}
}

func TestOutOfRangeInputsAreHarmless(t *testing.T) {
	ctx := testContext(t)
	mod := initialized(t, 4)
	res, err := mod.Handle(ctx, module.Command{Verb: "pos", Args: []string{"9"}})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Outcome != module.OutcomeNone || res.Message == "" {
		t.Fatalf("expected a harmless reply, got %+v", res)
	}
	if _, err := mod.Handle(ctx, module.Command{Verb: "cut"}); !errors.Is(err, module.ErrUnknownVerb) {
		t.Fatalf("expected ErrUnknownVerb, got %v", err)
	}
}

func TestSolutionStageOneTable(t *testing.T) {
	mod := initialized(t, 5)
	for display := 1; display <= 4; display++ {
		mod.display = display
		mod.stage = 0
		want := []int{1, 1, 2, 3}[display-1]
		if got := mod.solution(); got != want {
			t.Fatalf("display %d: solution = %d, want %d", display, got, want)
		}
	}
}
