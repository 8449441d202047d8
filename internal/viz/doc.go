// Package viz is the terminal live view for a running simulation.
//
// [Model] is a Bubble Tea program fed by a driver session. Bodies are drawn
// on a braille [Canvas] with trails covering the last few seconds of
// simulated time, next to an energy table and a drift chart.
//
// [Controls] holds the pause, reset and edit rules and is shared with the
// desktop window in package gui.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to the state after the last edit
//	+/-   - Speed up/down by 0.1, within [0, 20]
//	Tab   - Select next body
//	A/D   - Add a copy of / delete the selected body (paused only)
//	I/O   - Zoom in/out
//	C     - Center on the center of mass
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
