// Package password implements the Password puzzle: five letter spinners that
// must be cycled to spell the one word from the word list that the columns
// can produce. Initialization actively removes accidental second matches so
// exactly one word stays spellable.
package password
