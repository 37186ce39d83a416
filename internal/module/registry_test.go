package module

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/bombsquad-bot/bombsquad/internal/edgework"
)

type stubModule struct {
	Base
}

func (*stubModule) Init(*edgework.Context, *rand.Rand) error { return nil }
func (*stubModule) Handle(*edgework.Context, Command) (Result, error) {
	return Result{}, nil
}
func (*stubModule) View(*edgework.Context) string { return "" }

func stubFactory(id string, vanilla bool) Factory {
	return func() Module {
		return &stubModule{Base: NewBase(Info{
			ID: id, Name: id, SolveScore: 1, StrikePenalty: 1, Vanilla: vanilla,
		})}
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("wires", stubFactory("wires", true)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("wires", stubFactory("wires", true)); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestRegistryResolveUnknown(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Resolve("nope"); err == nil || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("expected unknown id error naming the selector, got %v", err)
	}
}

func TestRegistryResolveValidatesInfo(t *testing.T) {
	reg := NewRegistry()
	bad := func() Module {
		return &stubModule{Base: NewBase(Info{ID: "bad", Name: "Bad"})}
	}
	if err := reg.Register("bad", bad); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := reg.Resolve("bad"); err == nil {
		t.Fatalf("expected info validation error")
	}
}

func TestRegistryVanillaSplit(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("wires", stubFactory("wires", true))
	reg.MustRegister("memory", stubFactory("memory", true))
	reg.MustRegister("password", stubFactory("password", false))
	vanilla := reg.Vanilla(true)
	if len(vanilla) != 2 || vanilla[0] != "memory" || vanilla[1] != "wires" {
		t.Fatalf("vanilla = %v", vanilla)
	}
	modded := reg.Vanilla(false)
	if len(modded) != 1 || modded[0] != "password" {
		t.Fatalf("modded = %v", modded)
	}
}
