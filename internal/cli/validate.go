package cli

import (
	"github.com/spf13/cobra"

	"github.com/magentaqin/wheelhouse/internal/plan"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidateResult holds the validation outcome for output.
type ValidateResult struct {
	Profile      string `json:"profile"`
	BinaryPrefix string `json:"binary_prefix"`
	LogsPrefix   string `json:"logs_prefix"`
	TestTask     string `json:"test_task"`
	Steps        int    `json:"steps"`
	Valid        bool   `json:"valid"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <profile>",
		Short: "Validate a CUE plan profile",
		Long: `Compile a CUE plan profile and check that the step sequence it
produces is well-formed.

The sequence is built against placeholder inputs; guards are not
evaluated, only structural rules (step validity, unique names, report
steps marked always).

Examples:
  wheelhouse validate ./profiles/pixi.cue
  wheelhouse validate ./profiles --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	profile, err := LoadProfile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeBadProfile, err.Error(), nil)
		return WrapExitError(ExitFailure, "profile invalid", err)
	}

	// Build the sequence with placeholder inputs to validate its shape.
	inputs := plan.Inputs{SHA: "0000000", Arch: "linux-64", RunsOn: "validate"}
	bindings, err := plan.DeriveBindings(".")
	if err != nil {
		return WrapExitError(ExitCommandError, "derive bindings", err)
	}
	steps := plan.Sequence(profile, inputs, bindings)
	if err := plan.ValidateSequence(steps); err != nil {
		_ = formatter.Error(ErrCodeBadProfile, err.Error(), nil)
		return WrapExitError(ExitFailure, "step sequence invalid", err)
	}

	result := ValidateResult{
		Profile:      path,
		BinaryPrefix: profile.BinaryPrefix,
		LogsPrefix:   profile.LogsPrefix,
		TestTask:     profile.TestTask,
		Steps:        len(steps),
		Valid:        true,
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	formatter.VerboseLog("profile %s: %d steps", path, len(steps))
	return formatter.Success("profile valid")
}
