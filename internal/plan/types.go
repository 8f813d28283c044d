package plan

import (
	"fmt"
	"strings"
)

// Inputs holds the three caller-supplied values for one invocation.
// All fields are required and immutable once validated.
type Inputs struct {
	// SHA is the commit reference to materialize and test against.
	SHA string `json:"sha"`

	// Arch is the target architecture label (e.g., "linux-64", "win-64").
	// Guards test this label, and artifact names embed it.
	Arch string `json:"arch"`

	// RunsOn is the runner OS label (e.g., "ubuntu-latest").
	// It is recorded for traceability but never branched on; platform
	// predicates use Arch only.
	RunsOn string `json:"runs_on"`
}

// Validate checks that all required inputs are present and well-formed.
func (in Inputs) Validate() error {
	if in.SHA == "" {
		return &FieldError{Field: "sha", Message: "commit reference is required"}
	}
	if !validSHA(in.SHA) {
		return &FieldError{Field: "sha", Message: fmt.Sprintf("commit reference %q is not an abbreviated or full hex hash", in.SHA)}
	}
	if in.Arch == "" {
		return &FieldError{Field: "arch", Message: "architecture label is required"}
	}
	if in.RunsOn == "" {
		return &FieldError{Field: "runs_on", Message: "runner label is required"}
	}
	return nil
}

// validSHA accepts abbreviated through full git object hashes: 7 to 64
// hex digits (the upper bound covers SHA-256 repositories).
func validSHA(sha string) bool {
	if len(sha) < 7 || len(sha) > 64 {
		return false
	}
	for _, r := range sha {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// Windows reports whether the architecture label names a Windows target.
// Substring containment, not equality: "win-64", "win-arm64" and any future
// windows label all match.
func (in Inputs) Windows() bool {
	return strings.Contains(in.Arch, "win")
}

// FieldError reports a missing or malformed input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("input %s: %s", e.Field, e.Message)
}

// Role classifies a step for failure semantics.
type Role string

const (
	// RoleSetup steps are fatal on failure: remaining required steps are
	// skipped and the invocation result carries the setup failure.
	RoleSetup Role = "setup"

	// RoleTest is the single substantive step. Its exit code is the
	// authoritative pass/fail signal for the invocation.
	RoleTest Role = "test"

	// RoleReport steps are best-effort observability. They run despite
	// upstream failure and their own failures never downgrade the result.
	RoleReport Role = "report"
)

// Kind selects which external effect a step invokes.
type Kind string

const (
	// KindExec runs an argv directly (no shell).
	KindExec Kind = "exec"

	// KindScript runs an inline script through a shell.
	KindScript Kind = "script"

	// KindFetch retrieves a named artifact into a directory.
	KindFetch Kind = "fetch"

	// KindPublish uploads a directory as a named artifact.
	KindPublish Kind = "publish"

	// KindChmod marks all files under a directory executable.
	KindChmod Kind = "chmod"
)

// Shell selects the interpreter for KindScript steps.
type Shell string

const (
	// ShellPosix scripts run through the embedded POSIX interpreter, so
	// they behave identically on every host OS.
	ShellPosix Shell = "sh"

	// ShellPwsh scripts run through an external pwsh process. Windows-only
	// steps (dev-drive provisioning, summary append) use this.
	ShellPwsh Shell = "pwsh"
)

// Step is one ordered unit of work in the invocation sequence.
//
// Exactly one of Argv, Script, Artifact+Dir is meaningful depending on Kind.
// Steps execute in declared order, never concurrently, never reordered.
type Step struct {
	// Name identifies the step in traces, logs and scenario stubs.
	Name string `json:"name"`

	// Role determines failure semantics (see Role constants).
	Role Role `json:"role"`

	// Guard controls whether the step executes at all.
	Guard Guard `json:"guard"`

	// Kind selects the effect dispatched for this step.
	Kind Kind `json:"kind"`

	// Argv is the command line for KindExec steps.
	Argv []string `json:"argv,omitempty"`

	// Shell and Script describe KindScript steps.
	Shell  Shell  `json:"shell,omitempty"`
	Script string `json:"script,omitempty"`

	// Artifact names the transfer for KindFetch and KindPublish steps.
	Artifact string `json:"artifact,omitempty"`

	// Dir is the destination (fetch), source (publish), working directory
	// (exec/script) or target (chmod) of the step.
	Dir string `json:"dir,omitempty"`

	// IncludeHidden includes dot-prefixed files when publishing.
	IncludeHidden bool `json:"include_hidden,omitempty"`

	// Patterns restricts publish steps to relative paths matching any of
	// these globs. Empty publishes everything.
	Patterns []string `json:"patterns,omitempty"`

	// Env holds extra environment for exec/script steps, KEY=VALUE form.
	Env []string `json:"env,omitempty"`
}

// Validate checks structural consistency of a step.
func (s Step) Validate() error {
	if s.Name == "" {
		return &FieldError{Field: "name", Message: "step name is required"}
	}
	switch s.Role {
	case RoleSetup, RoleTest, RoleReport:
	default:
		return &FieldError{Field: "role", Message: fmt.Sprintf("step %q has unknown role %q", s.Name, s.Role)}
	}
	switch s.Kind {
	case KindExec:
		if len(s.Argv) == 0 {
			return &FieldError{Field: "argv", Message: fmt.Sprintf("exec step %q requires argv", s.Name)}
		}
	case KindScript:
		if s.Script == "" {
			return &FieldError{Field: "script", Message: fmt.Sprintf("script step %q requires a script", s.Name)}
		}
		if s.Shell != ShellPosix && s.Shell != ShellPwsh {
			return &FieldError{Field: "shell", Message: fmt.Sprintf("script step %q has unknown shell %q", s.Name, s.Shell)}
		}
	case KindFetch, KindPublish:
		if s.Artifact == "" {
			return &FieldError{Field: "artifact", Message: fmt.Sprintf("%s step %q requires an artifact name", s.Kind, s.Name)}
		}
		if s.Dir == "" {
			return &FieldError{Field: "dir", Message: fmt.Sprintf("%s step %q requires a directory", s.Kind, s.Name)}
		}
	case KindChmod:
		if s.Dir == "" {
			return &FieldError{Field: "dir", Message: fmt.Sprintf("chmod step %q requires a directory", s.Name)}
		}
	default:
		return &FieldError{Field: "kind", Message: fmt.Sprintf("step %q has unknown kind %q", s.Name, s.Kind)}
	}
	return nil
}

// ValidateSequence checks a full step list: every step valid, names unique,
// and report steps marked always() so observability survives failure.
func ValidateSequence(steps []Step) error {
	if len(steps) == 0 {
		return &FieldError{Field: "steps", Message: "sequence must contain at least one step"}
	}
	seen := make(map[string]bool, len(steps))
	for _, s := range steps {
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.Name] {
			return &FieldError{Field: "name", Message: fmt.Sprintf("duplicate step name %q", s.Name)}
		}
		seen[s.Name] = true
		if s.Role == RoleReport && !s.Guard.Always {
			return &FieldError{Field: "guard", Message: fmt.Sprintf("report step %q must be guarded always()", s.Name)}
		}
	}
	return nil
}
