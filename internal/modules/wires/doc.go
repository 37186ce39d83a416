// Package wires implements the Wires puzzle: a row of colored wires with a
// single correct cut chosen by a decision table over wire colors and the
// serial number.
package wires
