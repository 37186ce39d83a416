// Package memory implements the Memory puzzle: five stages of button presses
// where the expected press depends on the history of earlier stages. A wrong
// press resets progress to stage one and re-randomizes the display.
package memory
