// Package statusline refreshes a single-line status display by running an
// external renderer command.
//
// The host loop owns a Manager and calls MaybeRequest on every tick with a
// fresh Request snapshot. The Manager admits at most one attempt at a time
// and no more than one per update interval, measured from the start of the
// previous attempt. An admitted attempt runs in its own goroutine:
//
//   - resolve the git branch of the request's cwd
//   - encode the request as a JSON object
//   - spawn the renderer, write the JSON to its stdin and close it
//   - wait for exit, bounded by the configured timeout
//   - take the first stdout line as the rendered status line
//
// Exactly one Outcome is delivered to the Sink per attempt. Every failure
// (encoding, spawn, stdin write, timeout, non-zero exit) is logged and
// collapsed to a failed Outcome; nothing is retried. The host loop calls
// MarkComplete once it has consumed the outcome, which releases the gate.
//
// The renderer runs in its own process group. The group is killed when the
// attempt times out or when the Manager is closed, so no renderer process
// outlives its attempt.
package statusline
