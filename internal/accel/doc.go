// Package accel parses keyboard accelerators and matches them against
// terminal key events.
//
// Accelerators use the Electron format: zero or more modifiers followed by
// exactly one key, joined with "+".
//
//	CmdOrCtrl+Shift+F
//	Alt+R
//	Ctrl+Plus
//	F5
//
// The platform-dependent modifier CmdOrCtrl (alias CommandOrControl) resolves
// to Meta on darwin and to Ctrl everywhere else. Resolution happens at parse
// time, so two accelerators collide exactly when their resolved chords have
// the same canonical String form.
//
// # Terminal integration
//
// FromTcell converts a *tcell.EventKey into a Chord. Terminals report
// Ctrl+letter as a control code; these are mapped back to the letter with the
// Ctrl modifier. Uppercase letters imply Shift. Chord.TcellEvent builds the
// event a terminal would deliver for the chord, which is used to simulate key
// presses.
//
// AltGr has no terminal equivalent and is delivered as Alt.
package accel
