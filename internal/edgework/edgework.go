// Package edgework generates the randomized session-wide context that module
// rules consult: the serial number and the widgets on the bomb's casing.
package edgework

import (
	"fmt"
	"math/rand"
	"strings"
)

const (
	// WidgetCount is how many widgets every bomb carries.
	WidgetCount = 5
	// maxDrawAttempts bounds regeneration when a draw collides with a
	// uniqueness rule. With 11 indicator codes and 5 widgets the bound is
	// unreachable; hitting it means the cardinalities changed underneath us.
	maxDrawAttempts = 32

	serialLetters = "ABCDEFGHIJKLMNEPQRSTUVWXZ"
	serialDigits  = "0123456789"
)

// Indicator is a three-letter indicator code.
type Indicator string

// The eleven indicator codes.
const (
	SND Indicator = "SND"
	CLR Indicator = "CLR"
	CAR Indicator = "CAR"
	IND Indicator = "IND"
	FRQ Indicator = "FRQ"
	SIG Indicator = "SIG"
	NSA Indicator = "NSA"
	MSA Indicator = "MSA"
	TRN Indicator = "TRN"
	BOB Indicator = "BOB"
	FRK Indicator = "FRK"
)

var indicatorCodes = []Indicator{SND, CLR, CAR, IND, FRQ, SIG, NSA, MSA, TRN, BOB, FRK}

// Port is a connector type found on port plates.
type Port string

// Port types, grouped the way real plates group them.
const (
	PortSerial    Port = "Serial"
	PortParallel  Port = "Parallel"
	PortDVI       Port = "DVI"
	PortPS2       Port = "PS2"
	PortRJ45      Port = "RJ45"
	PortStereoRCA Port = "StereoRCA"
)

var portGroups = [][]Port{
	{PortSerial, PortParallel},
	{PortDVI, PortPS2, PortRJ45, PortStereoRCA},
}

// Battery is a battery holder widget with one or two cells.
type Battery struct {
	Cells int
}

// IndicatorWidget is a labeled indicator light.
type IndicatorWidget struct {
	Code Indicator
	Lit  bool
}

func (w IndicatorWidget) String() string {
	if w.Lit {
		return "*" + string(w.Code)
	}
	return string(w.Code)
}

// PortPlate holds zero or more ports from one group.
type PortPlate struct {
	Ports []Port
}

func (p PortPlate) String() string {
	if len(p.Ports) == 0 {
		return "[Empty]"
	}
	names := make([]string, len(p.Ports))
	for i, port := range p.Ports {
		names[i] = string(port)
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// Context is the immutable edgework of one session. It is generated once,
// then read freely by any module's rule function without locking.
type Context struct {
	serial     string
	batteries  []Battery
	indicators []IndicatorWidget
	plates     []PortPlate
}

// Generate draws a fresh context from rng. Indicator codes are unique within
// a context; colliding draws are retried up to maxDrawAttempts.
func Generate(rng *rand.Rand) (*Context, error) {
	ctx := &Context{serial: randomSerial(rng)}
	for i := 0; i < WidgetCount; i++ {
		switch rng.Intn(3) {
		case 0:
			ctx.batteries = append(ctx.batteries, Battery{Cells: 1 + rng.Intn(2)})
		case 1:
			widget, err := ctx.drawIndicator(rng)
			if err != nil {
				return nil, err
			}
			ctx.indicators = append(ctx.indicators, widget)
		default:
			ctx.plates = append(ctx.plates, drawPlate(rng))
		}
	}
	return ctx, nil
}

func randomSerial(rng *rand.Rand) string {
	any := serialLetters + serialDigits
	pick := func(set string) byte { return set[rng.Intn(len(set))] }
	// Grammar: any, any, digit, letter, letter, digit.
	return string([]byte{
		pick(any), pick(any), pick(serialDigits),
		pick(serialLetters), pick(serialLetters), pick(serialDigits),
	})
}

func (c *Context) drawIndicator(rng *rand.Rand) (IndicatorWidget, error) {
	for attempt := 0; attempt < maxDrawAttempts; attempt++ {
		code := indicatorCodes[rng.Intn(len(indicatorCodes))]
		if c.hasIndicatorCode(code) {
			continue
		}
		return IndicatorWidget{Code: code, Lit: rng.Float64() > 0.4}, nil
	}
	return IndicatorWidget{}, fmt.Errorf("edgework: exhausted %d indicator draws", maxDrawAttempts)
}

func (c *Context) hasIndicatorCode(code Indicator) bool {
	for _, widget := range c.indicators {
		if widget.Code == code {
			return true
		}
	}
	return false
}

func drawPlate(rng *rand.Rand) PortPlate {
	group := portGroups[rng.Intn(len(portGroups))]
	plate := PortPlate{}
	for _, port := range group {
		if rng.Float64() > 0.5 {
			plate.Ports = append(plate.Ports, port)
		}
	}
	return plate
}

// Serial returns the six-character serial number.
func (c *Context) Serial() string {
	return c.serial
}

// BatteryCount is the total number of cells across all holders.
func (c *Context) BatteryCount() int {
	total := 0
	for _, battery := range c.batteries {
		total += battery.Cells
	}
	return total
}

// HolderCount is the number of battery holder widgets.
func (c *Context) HolderCount() int {
	return len(c.batteries)
}

// IndicatorLit reports whether the indicator with the given code is present
// and whether it is lit.
func (c *Context) IndicatorLit(code Indicator) (lit, present bool) {
	for _, widget := range c.indicators {
		if widget.Code == code {
			return widget.Lit, true
		}
	}
	return false, false
}

// HasPort reports whether any plate exposes the given port type.
func (c *Context) HasPort(port Port) bool {
	for _, plate := range c.plates {
		for _, candidate := range plate.Ports {
			if candidate == port {
				return true
			}
		}
	}
	return false
}

// HasVowel reports whether the serial contains a vowel.
func (c *Context) HasVowel() bool {
	return strings.ContainsAny(c.serial, "AEIOU")
}

// LastDigitOdd reports whether the serial's final digit is odd.
func (c *Context) LastDigitOdd() bool {
	last := c.serial[len(c.serial)-1]
	return (last-'0')%2 == 1
}

// String renders the edgework line shown in the channel, e.g.
// "2B 1H // *FRK // [Serial, Parallel] // AB3CD4".
func (c *Context) String() string {
	parts := []string{fmt.Sprintf("%dB %dH", c.BatteryCount(), c.HolderCount())}
	if len(c.indicators) > 0 {
		names := make([]string, len(c.indicators))
		for i, widget := range c.indicators {
			names[i] = widget.String()
		}
		parts = append(parts, strings.Join(names, " "))
	}
	if len(c.plates) > 0 {
		names := make([]string, len(c.plates))
		for i, plate := range c.plates {
			names[i] = plate.String()
		}
		parts = append(parts, strings.Join(names, " "))
	}
	parts = append(parts, c.serial)
	return strings.Join(parts, " // ")
}
