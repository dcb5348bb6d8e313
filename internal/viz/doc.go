// Package viz renders runs in the terminal.
//
//   - [Summary]: lipgloss panel with totals, metrics and per-body status
//   - [Plot]: asciigraph line chart, used for altitude histories
//   - [Model]: bubbletea live view stepping a simulator each frame
//   - [Canvas]: braille dot canvas backing the live view
//
// # Key Bindings
//
//	Space - Pause/Resume
//	+ / - - Double or halve steps per frame
//	z / Z - Zoom in or out
//	Q     - Quit
package viz
