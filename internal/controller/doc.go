// Package controller accumulates recognized gestures into a sentence and
// decides when that sentence is translated and spoken.
//
// Every prediction cancels the pending pause timers and arms a new pair:
// one marks the status as paused, the other fires the translation. Only the
// most recently armed pair can ever take effect, and only the most recent
// translation request may write its result.
package controller
