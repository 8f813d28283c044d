// Package store provides durable storage for wheelhouse run traces.
//
// Every invocation writes one row to runs and one row per step to
// step_results, in seq order. The trace is append-only: rows are never
// updated after FinishRun stamps the run's final status, which is what
// makes replay verification meaningful.
//
// Uses SQLite with WAL mode. A single writer connection avoids
// SQLITE_BUSY; concurrent readers (trace, replay) are fine under WAL.
package store
