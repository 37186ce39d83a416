package bomb

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/bombsquad-bot/bombsquad/internal/module"
)

func manifestRegistry(t *testing.T) *module.Registry {
	t.Helper()
	reg := module.NewRegistry()
	reg.MustRegister("wires", func() module.Module {
		return &stubModule{info: module.Info{ID: "wires", Name: "Wires", Help: "h", SolveScore: 1, StrikePenalty: 1, Vanilla: true}}
	})
	reg.MustRegister("memory", func() module.Module {
		return &stubModule{info: module.Info{ID: "memory", Name: "Memory", Help: "h", SolveScore: 4, StrikePenalty: 1, Vanilla: true}}
	})
	reg.MustRegister("keypad", func() module.Module {
		return &stubModule{info: module.Info{ID: "keypad", Name: "Keypad", Help: "h", SolveScore: 2, StrikePenalty: 1}}
	})
	return reg
}

func parse(t *testing.T, args ...string) ([]module.Module, error) {
	t.Helper()
	return ParseManifest(manifestRegistry(t), args, 0, rand.New(rand.NewSource(5)))
}

func userError(t *testing.T, err error, substr string) {
	t.Helper()
	var ue UserError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want a UserError", err)
	}
	if !strings.Contains(string(ue), substr) {
		t.Fatalf("error %q does not mention %q", ue, substr)
	}
}

func TestManifestExplicit(t *testing.T) {
	mods, err := parse(t, "wires", "memory*2", "3*keypad")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	counts := map[string]int{}
	for _, mod := range mods {
		counts[mod.Info().ID]++
	}
	if counts["wires"] != 1 || counts["memory"] != 2 || counts["keypad"] != 3 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestManifestExplicitErrors(t *testing.T) {
	cases := []struct {
		name    string
		args    []string
		mention string
	}{
		{"unknown selector", []string{"snake"}, "snake"},
		{"double star", []string{"wires*2*3"}, "stars"},
		{"ambiguous star", []string{"wires*memory"}, "which one"},
		{"over cap", []string{"wires*200"}, "cap"},
		{"zero modules", []string{"wires*0"}, "no modules"},
	}
	for _, tc := range cases {
		_, err := parse(t, tc.args...)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		userError(t, err, tc.mention)
	}
}

func TestManifestDistribution(t *testing.T) {
	mods, err := parse(t, "10", "vanilla")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(mods) != 10 {
		t.Fatalf("got %d modules, want 10", len(mods))
	}
	for _, mod := range mods {
		if !mod.Info().Vanilla {
			t.Fatalf("vanilla distribution produced modded module %s", mod.Info().ID)
		}
	}
}

func TestManifestDistributionMixed(t *testing.T) {
	mods, err := parse(t, "10", "mixed")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	vanilla := 0
	for _, mod := range mods {
		if mod.Info().Vanilla {
			vanilla++
		}
	}
	if vanilla != 5 {
		t.Fatalf("mixed 10: vanilla = %d, want 5", vanilla)
	}
}

func TestManifestVeto(t *testing.T) {
	mods, err := parse(t, "6", "vanilla", "-memory")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, mod := range mods {
		if mod.Info().ID == "memory" {
			t.Fatal("vetoed module was generated")
		}
	}
}

func TestManifestConfiguredCap(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	_, err := ParseManifest(manifestRegistry(t), []string{"wires*3"}, 2, rng)
	userError(t, err, "cap is 2")

	_, err = ParseManifest(manifestRegistry(t), []string{"3", "vanilla"}, 2, rng)
	userError(t, err, "cap is 2")

	mods, err := ParseManifest(manifestRegistry(t), []string{"wires*2"}, 2, rng)
	if err != nil {
		t.Fatalf("parse at the cap: %v", err)
	}
	if len(mods) != 2 {
		t.Fatalf("got %d modules, want 2", len(mods))
	}
}

func TestManifestDistributionErrors(t *testing.T) {
	_, err := parse(t, "0", "vanilla")
	userError(t, err, "no modules")

	_, err = parse(t, "500", "vanilla")
	userError(t, err, "cap")

	_, err = parse(t, "5", "chunky")
	userError(t, err, "chunky")

	_, err = parse(t, "5", "vanilla", "-snake")
	userError(t, err, "snake")

	_, err = parse(t, "5", "vanilla", "-wires", "-memory")
	userError(t, err, "vetoed all")

	_, err = parse(t)
	userError(t, err, "manifest")
}
