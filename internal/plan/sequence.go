package plan

import "path/filepath"

// Step names, fixed across profiles. Scenario stubs and trace assertions
// address steps by these names.
const (
	StepCheckout     = "checkout"
	StepDevDrive     = "create dev drive"
	StepDriveCopy    = "copy workspace to dev drive"
	StepFetchBinary  = "download binary"
	StepChmod        = "make binaries executable"
	StepTest         = "test common wheels"
	StepSummaryPosix = "write summary (sh)"
	StepSummaryPwsh  = "write summary (pwsh)"
	StepUploadLogs   = "upload logs"
)

// Sequence builds the fixed invocation step list for the given profile,
// inputs and bindings.
//
// The shape is invariant:
//
//  1. checkout               setup
//  2. create dev drive       setup   windows only
//  3. copy to dev drive      setup   windows only
//  4. download binary        setup
//  5. chmod release dir      setup   non-windows only
//  6. test common wheels     test
//  7. summary append (sh)    report  always, non-windows
//  8. summary append (pwsh)  report  always, windows
//  9. upload logs            report  always
//
// Steps 7 and 8 are mutually exclusive branches of the same logical step,
// distinguished only by file-append syntax.
func Sequence(p Profile, in Inputs, b Bindings) []Step {
	bin := filepath.Join(b.ReleaseDir, p.Binary)

	return []Step{
		{
			Name:   StepCheckout,
			Role:   RoleSetup,
			Guard:  Guard{OS: OSAny},
			Kind:   KindScript,
			Shell:  ShellPosix,
			Script: `git fetch --depth=1 origin "$WHEELHOUSE_SHA" && git checkout --detach "$WHEELHOUSE_SHA"`,
			Dir:    b.Workspace,
			Env:    append([]string{"WHEELHOUSE_SHA=" + in.SHA}, p.Env...),
		},
		{
			Name:   StepDevDrive,
			Role:   RoleSetup,
			Guard:  Guard{OS: OSWindows},
			Kind:   KindScript,
			Shell:  ShellPwsh,
			Script: p.DevDriveScript,
			Dir:    b.Workspace,
			Env:    p.Env,
		},
		{
			Name:   StepDriveCopy,
			Role:   RoleSetup,
			Guard:  Guard{OS: OSWindows},
			Kind:   KindScript,
			Shell:  ShellPwsh,
			Script: p.DriveCopyScript,
			Dir:    b.Workspace,
			Env:    p.Env,
		},
		{
			Name:     StepFetchBinary,
			Role:     RoleSetup,
			Guard:    Guard{OS: OSAny},
			Kind:     KindFetch,
			Artifact: BuildArtifact(p.BinaryPrefix, in.Arch, in.SHA),
			Dir:      b.ReleaseDir,
		},
		{
			Name:  StepChmod,
			Role:  RoleSetup,
			Guard: Guard{OS: OSNotWindows},
			Kind:  KindChmod,
			Dir:   b.ReleaseDir,
		},
		{
			Name:  StepTest,
			Role:  RoleTest,
			Guard: Guard{OS: OSAny},
			Kind:  KindExec,
			Argv:  []string{bin, "run", b.TestOptions, p.TestTask, "--pixi-exec", bin},
			Dir:   b.Workspace,
			Env:   p.Env,
		},
		{
			Name:   StepSummaryPosix,
			Role:   RoleReport,
			Guard:  Guard{OS: OSNotWindows, Always: true},
			Kind:   KindScript,
			Shell:  ShellPosix,
			Script: `cat "$SUMMARY_FILE" >> "$WHEELHOUSE_STEP_SUMMARY"`,
			Dir:    b.Workspace,
			Env:    p.Env,
		},
		{
			Name:   StepSummaryPwsh,
			Role:   RoleReport,
			Guard:  Guard{OS: OSWindows, Always: true},
			Kind:   KindScript,
			Shell:  ShellPwsh,
			Script: `Get-Content $env:SUMMARY_FILE | Out-File -Append -Encoding utf8 $env:WHEELHOUSE_STEP_SUMMARY`,
			Dir:    b.Workspace,
			Env:    p.Env,
		},
		{
			Name:          StepUploadLogs,
			Role:          RoleReport,
			Guard:         Guard{OS: OSAny, Always: true},
			Kind:          KindPublish,
			Artifact:      LogsArtifact(p.LogsPrefix, in.Arch),
			Dir:           b.LogsDir,
			IncludeHidden: true,
			Patterns:      p.LogPatterns,
		},
	}
}
