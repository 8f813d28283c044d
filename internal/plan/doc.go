// Package plan provides the data model for a wheelhouse invocation.
//
// This package contains type definitions and pure derivation functions only.
// All other internal packages import plan; plan imports nothing internal.
// This keeps the data model the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Inputs are immutable for the lifetime of one invocation
//   - Bindings are derived deterministically from the workspace root and
//     never mutated after derivation
//   - Guards are pure functions of the architecture label; no step may
//     consult ambient state when deciding whether to run
//   - Artifact names are deterministic functions of (prefix, arch, sha),
//     NFC-normalized so equal inputs always produce equal names
//   - All JSON tags use snake_case
package plan
