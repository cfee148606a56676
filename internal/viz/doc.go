// Package viz renders ride data in the terminal.
//
//   - [Plot] and [PlotMany]: asciigraph line charts of any series
//   - [Table]: lipgloss tables for metrics, curves and breakdowns
//   - [Canvas]: Braille pixel canvas used for the course profile
//   - [LiveModel]: Bubble Tea view of a ride simulation with manual power
//
// # Key Bindings (live view)
//
//	Up/K     - +10 W
//	Down/J   - -10 W
//	PgUp     - +50 W
//	PgDn     - -50 W
//	Space    - Pause/Resume
//	?        - Show help overlay
//	Q        - Quit
package viz
