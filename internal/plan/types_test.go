package plan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputs_Validate(t *testing.T) {
	for _, sha := range []string{
		"abc1234",
		"DEADBEEF00",
		"0f31f0ab4b7e0a32a9ad43315dde1f1a4b88b8f1",
		"0000000000000000000000000000000000000000000000000000000000000000",
	} {
		valid := Inputs{SHA: sha, Arch: "linux-64", RunsOn: "ubuntu-latest"}
		require.NoError(t, valid.Validate(), sha)
	}

	tests := []struct {
		name  string
		in    Inputs
		field string
	}{
		{"missing sha", Inputs{Arch: "linux-64", RunsOn: "r"}, "sha"},
		{"missing arch", Inputs{SHA: "abc1234", RunsOn: "r"}, "arch"},
		{"missing runs_on", Inputs{SHA: "abc1234", Arch: "linux-64"}, "runs_on"},
		{"sha with path separator", Inputs{SHA: "a/b4567", Arch: "linux-64", RunsOn: "r"}, "sha"},
		{"sha too short", Inputs{SHA: "abc123", Arch: "linux-64", RunsOn: "r"}, "sha"},
		{"sha too long", Inputs{SHA: strings.Repeat("a", 65), Arch: "linux-64", RunsOn: "r"}, "sha"},
		{"sha with non-hex characters", Inputs{SHA: "feature-branch", Arch: "linux-64", RunsOn: "r"}, "sha"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			require.Error(t, err)
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestStep_Validate(t *testing.T) {
	tests := []struct {
		name    string
		step    Step
		wantErr bool
	}{
		{"valid exec", Step{Name: "x", Role: RoleSetup, Kind: KindExec, Argv: []string{"true"}}, false},
		{"exec without argv", Step{Name: "x", Role: RoleSetup, Kind: KindExec}, true},
		{"valid script", Step{Name: "x", Role: RoleSetup, Kind: KindScript, Shell: ShellPosix, Script: "true"}, false},
		{"script without shell", Step{Name: "x", Role: RoleSetup, Kind: KindScript, Script: "true"}, true},
		{"valid fetch", Step{Name: "x", Role: RoleSetup, Kind: KindFetch, Artifact: "a", Dir: "/d"}, false},
		{"fetch without artifact", Step{Name: "x", Role: RoleSetup, Kind: KindFetch, Dir: "/d"}, true},
		{"publish without dir", Step{Name: "x", Role: RoleReport, Kind: KindPublish, Artifact: "a"}, true},
		{"valid chmod", Step{Name: "x", Role: RoleSetup, Kind: KindChmod, Dir: "/d"}, false},
		{"unknown role", Step{Name: "x", Role: "other", Kind: KindChmod, Dir: "/d"}, true},
		{"unknown kind", Step{Name: "x", Role: RoleSetup, Kind: "warp"}, true},
		{"missing name", Step{Role: RoleSetup, Kind: KindChmod, Dir: "/d"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.step.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProfile_Validate(t *testing.T) {
	require.NoError(t, DefaultProfile().Validate())

	p := DefaultProfile()
	p.TestTask = ""
	assert.Error(t, p.Validate())

	p = DefaultProfile()
	p.BinaryPrefix = ""
	assert.Error(t, p.Validate())
}

// The dev-drive step exports its drive letter through the step env file so
// the copy step, which runs in a fresh pwsh process, can read it back.
func TestProfile_DevDriveHandoff(t *testing.T) {
	p := DefaultProfile()

	assert.Contains(t, p.DevDriveScript, "DEV_DRIVE=")
	assert.Contains(t, p.DevDriveScript, "$env:WHEELHOUSE_ENV")
	assert.Contains(t, p.DriveCopyScript, "$env:DEV_DRIVE")
}
