package plan

import "strings"

// OSGuard restricts a step to a platform family.
type OSGuard string

const (
	// OSAny places no platform restriction on the step.
	OSAny OSGuard = "any"

	// OSWindows runs the step only when the arch label names Windows.
	OSWindows OSGuard = "windows"

	// OSNotWindows runs the step on every platform except Windows.
	OSNotWindows OSGuard = "not-windows"
)

// Guard is the boolean predicate controlling whether a step executes.
//
// The OS component is a pure function of the architecture label (substring
// containment, matching how the original pipeline tested its runner labels).
// Always overrides the implicit "all prior required steps succeeded"
// precondition: an always() step runs even after upstream failure.
type Guard struct {
	OS     OSGuard `json:"os"`
	Always bool    `json:"always,omitempty"`
}

// Matches reports whether the guard's platform predicate holds for arch.
// Always is not consulted here; the sequencer applies it against the run's
// accumulated status.
func (g Guard) Matches(arch string) bool {
	switch g.OS {
	case OSWindows:
		return strings.Contains(arch, "win")
	case OSNotWindows:
		return !strings.Contains(arch, "win")
	default:
		return true
	}
}

// RunsAfterFailure reports whether the step still executes once a required
// upstream step has failed.
func (g Guard) RunsAfterFailure() bool {
	return g.Always
}
