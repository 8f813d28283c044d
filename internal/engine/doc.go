// Package engine implements the wheelhouse invocation sequencer.
//
// The sequencer executes one fixed, ordered list of steps for one
// (commit, architecture, runner) triple. Steps run strictly one after
// another in a single goroutine; there is no parallelism, no retry, and no
// reordering. Each step blocks on the external effect it delegates to and
// the next step starts only when the previous one has finished.
//
// Control flow:
//  1. Each step's guard is evaluated against the architecture label and the
//     run's accumulated status.
//  2. Guarded-out steps are recorded as skipped, never executed.
//  3. A failing setup step short-circuits every remaining required step;
//     always() steps still run.
//  4. The test step's exit code is the authoritative result of the run.
//  5. Report step failures are logged and recorded but never downgrade the
//     run's result.
//
// All events are stamped with a monotonic seq counter from Clock.Next(),
// never wall-clock timestamps, so a recorded trace replays in the exact
// order it was produced.
//
// External effects (process execution, artifact transfer, permission
// normalization) are reached only through the Effects interface, keeping
// the sequencer itself deterministic and fully testable.
package engine
