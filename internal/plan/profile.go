package plan

// Profile holds the tunable parts of the step sequence. The sequence shape
// itself (ordering, guards, roles) is fixed; a profile only renames the
// artifacts, the tested binary and the test task, and may override the
// platform-specific provisioning scripts.
type Profile struct {
	// BinaryPrefix prefixes the fetched build artifact name.
	BinaryPrefix string `json:"binary_prefix"`

	// LogsPrefix prefixes the published logs artifact name.
	LogsPrefix string `json:"logs_prefix"`

	// Binary is the executable inside the release directory to test.
	Binary string `json:"binary"`

	// TestTask is the binary's built-in task exercising the wheel corpus.
	TestTask string `json:"test_task"`

	// DevDriveScript provisions the high-performance volume on Windows.
	DevDriveScript string `json:"dev_drive_script,omitempty"`

	// DriveCopyScript duplicates the workspace onto the provisioned volume.
	DriveCopyScript string `json:"drive_copy_script,omitempty"`

	// LogPatterns restricts the published logs artifact to relative paths
	// matching any of these globs. Empty publishes the whole logs dir.
	LogPatterns []string `json:"log_patterns,omitempty"`

	// Env holds extra KEY=VALUE pairs exported to every step.
	Env []string `json:"env,omitempty"`
}

// DefaultProfile returns the profile for the stock pixi wheel-test pipeline.
func DefaultProfile() Profile {
	return Profile{
		BinaryPrefix: "pixi",
		LogsPrefix:   "wheel-logs",
		Binary:       "pixi",
		TestTask:     "test-common-wheels-ci",
		DevDriveScript: `$drive = New-VHD -Path $env:WHEELHOUSE_WORKSPACE\dev.vhdx -SizeBytes 20GB -Dynamic |
    Mount-VHD -Passthru |
    Initialize-Disk -Passthru |
    New-Partition -AssignDriveLetter -UseMaximumSize |
    Format-Volume -FileSystem ReFS -Confirm:$false -Force
Write-Output "DEV_DRIVE=$($drive.DriveLetter):" | Out-File -Append -Encoding utf8 $env:WHEELHOUSE_ENV`,
		DriveCopyScript: `Copy-Item -Path "$env:WHEELHOUSE_WORKSPACE" -Destination "$env:DEV_DRIVE\work" -Recurse`,
	}
}

// Validate checks that a profile names everything the sequence needs.
func (p Profile) Validate() error {
	if p.BinaryPrefix == "" {
		return &FieldError{Field: "binary_prefix", Message: "binary artifact prefix is required"}
	}
	if p.LogsPrefix == "" {
		return &FieldError{Field: "logs_prefix", Message: "logs artifact prefix is required"}
	}
	if p.Binary == "" {
		return &FieldError{Field: "binary", Message: "binary name is required"}
	}
	if p.TestTask == "" {
		return &FieldError{Field: "test_task", Message: "test task is required"}
	}
	return nil
}
