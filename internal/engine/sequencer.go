package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magentaqin/wheelhouse/internal/plan"
)

// Sequencer executes one invocation: the fixed step list for one
// (commit, architecture, runner) triple.
//
// INVARIANTS:
//   - steps slice order NEVER changes after construction
//   - every step is recorded exactly once (success, failed or skipped)
//   - Run() must be called from exactly one goroutine, exactly once
type Sequencer struct {
	inputs  plan.Inputs
	steps   []plan.Step
	effects Effects
	trace   TraceWriter
	clock   *Clock
	runGen  RunTokenGenerator
	logger  *slog.Logger
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sequencer) {
		s.logger = l
	}
}

// WithRunTokenGenerator overrides the run ID generator (for testing).
func WithRunTokenGenerator(g RunTokenGenerator) Option {
	return func(s *Sequencer) {
		s.runGen = g
	}
}

// New creates a Sequencer for the given inputs and step list.
//
// The steps slice is copied to prevent external mutation from reordering
// the sequence after construction.
func New(in plan.Inputs, steps []plan.Step, effects Effects, trace TraceWriter, opts ...Option) *Sequencer {
	stepsCopy := make([]plan.Step, len(steps))
	copy(stepsCopy, steps)

	s := &Sequencer{
		inputs:  in,
		steps:   stepsCopy,
		effects: effects,
		trace:   trace,
		clock:   NewClock(),
		runGen:  UUIDv7Generator{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the step sequence to completion or first unguarded failure.
//
// The returned Result carries the invocation outcome; a step failing is NOT
// an error from Run. The error return covers infrastructure problems only:
// trace persistence failing, or the context being cancelled mid-sequence.
func (s *Sequencer) Run(ctx context.Context) (*Result, error) {
	runID := s.runGen.Generate()
	result := newResult(runID)

	if err := s.trace.BeginRun(ctx, runID, s.inputs); err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}

	s.logger.Info("run starting",
		"run", runID,
		"sha", s.inputs.SHA,
		"arch", s.inputs.Arch,
		"runs_on", s.inputs.RunsOn,
	)

	for _, step := range s.steps {
		// Cancellation aborts the whole sequence, always() steps included.
		// The external per-run timeout ceiling arrives here as a context
		// deadline.
		if err := ctx.Err(); err != nil {
			return result, NewAbortError(runID, step.Name, err)
		}

		sr := s.runStep(ctx, step, result)
		result.record(sr)

		if err := s.trace.WriteStepResult(ctx, runID, sr); err != nil {
			return result, fmt.Errorf("write step result %q: %w", step.Name, err)
		}
	}

	if err := s.trace.FinishRun(ctx, runID, result.Status, result.FailedStep); err != nil {
		return result, fmt.Errorf("finish run: %w", err)
	}

	s.logger.Info("run finished", "run", runID, "status", result.Status)
	return result, nil
}

// runStep evaluates the step's guard and, if it holds, dispatches the
// step's effect. The returned StepResult is always stamped with the next
// clock seq, whether the step ran or was skipped.
func (s *Sequencer) runStep(ctx context.Context, step plan.Step, result *Result) StepResult {
	sr := StepResult{
		Seq:      s.clock.Next(),
		Name:     step.Name,
		Role:     step.Role,
		ExitCode: -1,
	}

	if !step.Guard.Matches(s.inputs.Arch) {
		sr.Status = StatusSkipped
		s.logger.Debug("step skipped by platform guard", "step", step.Name, "arch", s.inputs.Arch)
		return sr
	}
	if result.Failed() && !step.Guard.RunsAfterFailure() {
		sr.Status = StatusSkipped
		s.logger.Debug("step skipped after upstream failure", "step", step.Name)
		return sr
	}

	s.logger.Info("step starting", "step", step.Name, "kind", step.Kind)
	start := time.Now()
	exitCode, err := s.dispatch(ctx, step)
	sr.DurationMS = time.Since(start).Milliseconds()
	sr.ExitCode = exitCode

	if err == nil && exitCode == 0 {
		sr.Status = StatusSuccess
		s.logger.Info("step succeeded", "step", step.Name)
		return sr
	}

	sr.Status = StatusFailed
	stepErr := s.classify(step, result.RunID, exitCode, err)
	sr.Error = stepErr.Error()

	if step.Role == plan.RoleReport {
		// Observability is best-effort: log loudly, never downgrade.
		s.logger.Warn("report step failed", "step", step.Name, "error", stepErr)
	} else {
		s.logger.Error("step failed", "step", step.Name, "error", stepErr)
	}
	return sr
}

// dispatch invokes the external effect for a step.
func (s *Sequencer) dispatch(ctx context.Context, step plan.Step) (int, error) {
	switch step.Kind {
	case plan.KindExec:
		return s.effects.Exec(ctx, step.Argv, step.Dir, step.Env)
	case plan.KindScript:
		return s.effects.RunScript(ctx, step.Shell, step.Script, step.Dir, step.Env)
	case plan.KindFetch:
		if err := s.effects.Fetch(ctx, step.Artifact, step.Dir); err != nil {
			return -1, err
		}
		return 0, nil
	case plan.KindPublish:
		if err := s.effects.Publish(ctx, step.Artifact, step.Dir, step.IncludeHidden, step.Patterns); err != nil {
			return -1, err
		}
		return 0, nil
	case plan.KindChmod:
		if err := s.effects.Chmod(ctx, step.Dir); err != nil {
			return -1, err
		}
		return 0, nil
	default:
		return -1, fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

// classify wraps a step failure in a StepError with the role's code.
func (s *Sequencer) classify(step plan.Step, runID string, exitCode int, err error) *StepError {
	switch step.Role {
	case plan.RoleTest:
		return NewTestError(runID, step.Name, exitCode, err)
	case plan.RoleReport:
		return NewReportError(runID, step.Name, exitCode, err)
	default:
		return NewSetupError(runID, step.Name, exitCode, err)
	}
}
