// Package modules assembles the puzzle catalog. Each puzzle lives in its own
// subpackage; this package only wires factories into a registry.
package modules

import (
	"github.com/bombsquad-bot/bombsquad/internal/module"
	"github.com/bombsquad-bot/bombsquad/internal/modules/memory"
	"github.com/bombsquad-bot/bombsquad/internal/modules/password"
	"github.com/bombsquad-bot/bombsquad/internal/modules/wires"
)

// RegisterBuiltins installs all of the built-in puzzle factories into the
// provided registry.
func RegisterBuiltins(reg *module.Registry) {
	if reg == nil {
		return
	}
	wires.Register(reg)
	memory.Register(reg)
	password.Register(reg)
}

// DefaultRegistry returns a fresh registry holding every built-in puzzle.
func DefaultRegistry() *module.Registry {
	reg := module.NewRegistry()
	RegisterBuiltins(reg)
	return reg
}
