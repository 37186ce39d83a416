package edgework

import (
	"math/rand"
	"strings"
	"testing"
)

func TestSerialGrammar(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		ctx, err := Generate(rng)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		serial := ctx.Serial()
		if len(serial) != 6 {
			t.Fatalf("serial %q has length %d", serial, len(serial))
		}
		for _, pos := range []int{2, 5} {
			if serial[pos] < '0' || serial[pos] > '9' {
				t.Fatalf("serial %q: position %d is not a digit", serial, pos)
			}
		}
		for _, pos := range []int{3, 4} {
			if !strings.ContainsRune(serialLetters, rune(serial[pos])) {
				t.Fatalf("serial %q: position %d is not a letter", serial, pos)
			}
		}
		if strings.ContainsAny(serial, "OY") {
			t.Fatalf("serial %q contains an excluded letter", serial)
		}
	}
}

func TestIndicatorCodesUnique(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		ctx, err := Generate(rng)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		seen := map[Indicator]bool{}
		for _, widget := range ctx.indicators {
			if seen[widget.Code] {
				t.Fatalf("duplicate indicator %s", widget.Code)
			}
			seen[widget.Code] = true
		}
	}
}

func TestWidgetCountFixed(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ctx, err := Generate(rng)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	total := len(ctx.batteries) + len(ctx.indicators) + len(ctx.plates)
	if total != WidgetCount {
		t.Fatalf("widget count = %d, want %d", total, WidgetCount)
	}
}

func TestDeterministicUnderSeed(t *testing.T) {
	first, err := Generate(rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := Generate(rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first.String() != second.String() {
		t.Fatalf("same seed produced %q and %q", first.String(), second.String())
	}
}

func TestQueries(t *testing.T) {
	ctx := &Context{
		serial:     "AB3CD5",
		batteries:  []Battery{{Cells: 2}, {Cells: 1}},
		indicators: []IndicatorWidget{{Code: FRK, Lit: true}},
		plates:     []PortPlate{{Ports: []Port{PortParallel}}},
	}
	if got := ctx.BatteryCount(); got != 3 {
		t.Fatalf("battery count = %d, want 3", got)
	}
	if got := ctx.HolderCount(); got != 2 {
		t.Fatalf("holder count = %d, want 2", got)
	}
	if lit, present := ctx.IndicatorLit(FRK); !lit || !present {
		t.Fatalf("FRK should be lit and present")
	}
	if _, present := ctx.IndicatorLit(BOB); present {
		t.Fatalf("BOB should be absent")
	}
	if !ctx.HasPort(PortParallel) {
		t.Fatalf("expected a parallel port")
	}
	if ctx.HasPort(PortRJ45) {
		t.Fatalf("unexpected RJ45 port")
	}
	if !ctx.HasVowel() {
		t.Fatalf("AB3CD5 contains a vowel")
	}
	if !ctx.LastDigitOdd() {
		t.Fatalf("5 is odd")
	}
	want := "3B 2H // *FRK // [Parallel] // AB3CD5"
	if got := ctx.String(); got != want {
		t.Fatalf("edgework line = %q, want %q", got, want)
	}
}
