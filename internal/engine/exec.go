package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/magentaqin/wheelhouse/internal/artifact"
	"github.com/magentaqin/wheelhouse/internal/plan"
)

// ExecEffects is the production Effects implementation.
//
// Argv steps run through os/exec. POSIX script steps run through the
// embedded shell interpreter so they behave identically on every host OS;
// pwsh scripts are handed to an external pwsh process, since they only run
// on Windows targets anyway. Artifact transfer delegates to the configured
// artifact store.
type ExecEffects struct {
	// Artifacts is the artifact store backend.
	Artifacts artifact.Store

	// BaseEnv is appended to the process environment for every step
	// (the invocation's derived bindings).
	BaseEnv []string

	// EnvFile, when set, is re-read before each step. KEY=VALUE lines
	// appended to it by earlier steps are added to the environment, so a
	// provisioning step can hand values (like the dev drive letter) to
	// the steps after it.
	EnvFile string

	// Stdout and Stderr receive step output. Defaults to the parent's.
	Stdout io.Writer
	Stderr io.Writer

	// PwshPath overrides the pwsh executable (tests). Default "pwsh".
	PwshPath string
}

// Exec runs argv directly, without a shell.
func (e *ExecEffects) Exec(ctx context.Context, argv []string, dir string, env []string) (int, error) {
	if len(argv) == 0 {
		return -1, errors.New("empty argv")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = e.environ(env)
	cmd.Stdout = e.stdout()
	cmd.Stderr = e.stderr()

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("exec %s: %w", argv[0], err)
}

// RunScript executes an inline script through the selected shell.
func (e *ExecEffects) RunScript(ctx context.Context, shell plan.Shell, script, dir string, env []string) (int, error) {
	switch shell {
	case plan.ShellPosix:
		return e.runPosix(ctx, script, dir, env)
	case plan.ShellPwsh:
		return e.runPwsh(ctx, script, dir, env)
	default:
		return -1, fmt.Errorf("unknown shell %q", shell)
	}
}

// runPosix interprets the script with the embedded POSIX shell.
func (e *ExecEffects) runPosix(ctx context.Context, script, dir string, env []string) (int, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "step")
	if err != nil {
		return -1, fmt.Errorf("parse script: %w", err)
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(e.environ(env)...)),
		interp.StdIO(nil, e.stdout(), e.stderr()),
	)
	if err != nil {
		return -1, fmt.Errorf("create interpreter: %w", err)
	}

	err = runner.Run(ctx, prog)
	if err == nil {
		return 0, nil
	}
	if status, ok := interp.IsExitStatus(err); ok {
		return int(status), nil
	}
	return -1, fmt.Errorf("run script: %w", err)
}

// runPwsh hands the script to an external pwsh process.
func (e *ExecEffects) runPwsh(ctx context.Context, script, dir string, env []string) (int, error) {
	pwsh := e.PwshPath
	if pwsh == "" {
		pwsh = "pwsh"
	}
	cmd := exec.CommandContext(ctx, pwsh, "-NoProfile", "-NonInteractive", "-Command", script)
	cmd.Dir = dir
	cmd.Env = e.environ(env)
	cmd.Stdout = e.stdout()
	cmd.Stderr = e.stderr()

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("exec pwsh: %w", err)
}

// Fetch retrieves an artifact into dest via the configured store.
func (e *ExecEffects) Fetch(ctx context.Context, name, dest string) error {
	return e.Artifacts.Fetch(ctx, name, dest)
}

// Publish uploads dir as a named artifact via the configured store.
func (e *ExecEffects) Publish(ctx context.Context, name, dir string, includeHidden bool, patterns []string) error {
	return e.Artifacts.Publish(ctx, name, dir, artifact.PublishOptions{
		IncludeHidden: includeHidden,
		Patterns:      patterns,
	})
}

// Chmod marks every regular file under dir executable. On platforms with a
// different permission model this is effectively a no-op, which is why the
// plan guards the chmod step to non-Windows targets.
func (e *ExecEffects) Chmod(ctx context.Context, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return os.Chmod(path, info.Mode().Perm()|0o111)
	})
}

func (e *ExecEffects) environ(extra []string) []string {
	env := os.Environ()
	env = append(env, e.BaseEnv...)
	env = append(env, e.stepEnv()...)
	return append(env, extra...)
}

// stepEnv reads the KEY=VALUE lines earlier steps appended to the env
// file. A missing file means no step has exported anything yet.
func (e *ExecEffects) stepEnv() []string {
	if e.EnvFile == "" {
		return nil
	}
	data, err := os.ReadFile(e.EnvFile)
	if err != nil {
		return nil
	}
	var env []string
	for _, line := range strings.Split(strings.TrimPrefix(string(data), "\ufeff"), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || !strings.Contains(line, "=") {
			continue
		}
		env = append(env, line)
	}
	return env
}

func (e *ExecEffects) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *ExecEffects) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return os.Stderr
}
