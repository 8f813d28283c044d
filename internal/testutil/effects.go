// Package testutil provides test doubles for exercising the sequencer
// without touching processes, filesystems or artifact storage.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/magentaqin/wheelhouse/internal/plan"
)

// Call records one effect invocation observed by FakeEffects.
type Call struct {
	// Kind is the effect method: "exec", "script", "fetch", "publish",
	// "chmod".
	Kind string

	// Detail describes the call: argv[0] or script shell for commands,
	// artifact name for transfers, directory for chmod.
	Detail string

	// IncludeHidden echoes the publish flag.
	IncludeHidden bool

	// Patterns echoes the publish include patterns.
	Patterns []string
}

// Outcome scripts the result FakeEffects returns for a named step effect.
type Outcome struct {
	// ExitCode is returned for command effects.
	ExitCode int

	// Err is returned as the effect error (action could not run at all).
	Err error
}

// FakeEffects is a scripted engine.Effects implementation.
//
// Outcomes are keyed by a detail string: the first argv element for exec,
// the artifact name for fetch/publish, the directory for chmod, and the
// shell name for scripts. Unkeyed effects succeed.
//
// Thread-safety: safe for concurrent use, though the sequencer is
// single-threaded by design.
type FakeEffects struct {
	mu       sync.Mutex
	outcomes map[string]Outcome
	calls    []Call
}

// NewFakeEffects creates a FakeEffects where every effect succeeds.
func NewFakeEffects() *FakeEffects {
	return &FakeEffects{outcomes: make(map[string]Outcome)}
}

// Stub scripts the outcome for a detail key.
func (f *FakeEffects) Stub(detail string, out Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[detail] = out
}

// Calls returns the effects observed so far, in order.
func (f *FakeEffects) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallNames returns just the detail strings, in order. Convenient for
// asserting which steps actually executed.
func (f *FakeEffects) CallNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.calls))
	for i, c := range f.calls {
		names[i] = c.Detail
	}
	return names
}

func (f *FakeEffects) record(c Call) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.outcomes[c.Detail]
}

// Exec implements engine.Effects.
func (f *FakeEffects) Exec(ctx context.Context, argv []string, dir string, env []string) (int, error) {
	if len(argv) == 0 {
		return -1, fmt.Errorf("empty argv")
	}
	out := f.record(Call{Kind: "exec", Detail: argv[0]})
	return out.ExitCode, out.Err
}

// RunScript implements engine.Effects. The outcome key is the script text
// itself, which is unique per step in every plan sequence.
func (f *FakeEffects) RunScript(ctx context.Context, shell plan.Shell, script, dir string, env []string) (int, error) {
	out := f.record(Call{Kind: "script", Detail: script})
	return out.ExitCode, out.Err
}

// Fetch implements engine.Effects.
func (f *FakeEffects) Fetch(ctx context.Context, artifact, dest string) error {
	return f.record(Call{Kind: "fetch", Detail: artifact}).Err
}

// Publish implements engine.Effects.
func (f *FakeEffects) Publish(ctx context.Context, artifact, dir string, includeHidden bool, patterns []string) error {
	return f.record(Call{Kind: "publish", Detail: artifact, IncludeHidden: includeHidden, Patterns: patterns}).Err
}

// Chmod implements engine.Effects.
func (f *FakeEffects) Chmod(ctx context.Context, dir string) error {
	return f.record(Call{Kind: "chmod", Detail: dir}).Err
}

// DetailKey returns the outcome key FakeEffects uses for a step's effect.
// Use it to stub a specific plan step:
//
//	fx.Stub(testutil.DetailKey(step), testutil.Outcome{ExitCode: 1})
func DetailKey(s plan.Step) string {
	switch s.Kind {
	case plan.KindExec:
		if len(s.Argv) > 0 {
			return s.Argv[0]
		}
		return ""
	case plan.KindScript:
		return s.Script
	case plan.KindFetch, plan.KindPublish:
		return s.Artifact
	case plan.KindChmod:
		return s.Dir
	default:
		return s.Name
	}
}
