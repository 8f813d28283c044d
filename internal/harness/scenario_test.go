package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenario(t, `
name: sample
description: a minimal scenario
inputs:
  sha: abc1234
  arch: linux-64
  runs_on: ubuntu-latest
stubs:
  - step: test common wheels
    exit_code: 1
expect:
  status: fail
  failed_step: test common wheels
  steps:
    - name: test common wheels
      status: failed
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", s.Name)
	assert.Equal(t, "linux-64", s.Inputs.Arch)
	require.Len(t, s.Stubs, 1)
	assert.Equal(t, 1, s.Stubs[0].ExitCode)
	assert.Equal(t, "fail", s.Expect.Status)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadScenario_InvalidYAML(t *testing.T) {
	path := writeScenario(t, "name: [unclosed")
	_, err := LoadScenario(path)
	require.Error(t, err)
}

func TestScenarioValidate(t *testing.T) {
	base := func() Scenario {
		return Scenario{
			Name:   "s",
			Inputs: ScenarioInputs{SHA: "abc", Arch: "linux-64", RunsOn: "ubuntu-latest"},
			Expect: Expectation{Status: "pass"},
		}
	}

	t.Run("valid", func(t *testing.T) {
		s := base()
		assert.NoError(t, s.Validate())
	})

	t.Run("missing name", func(t *testing.T) {
		s := base()
		s.Name = ""
		assert.Error(t, s.Validate())
	})

	t.Run("missing inputs", func(t *testing.T) {
		s := base()
		s.Inputs.Arch = ""
		assert.Error(t, s.Validate())
	})

	t.Run("bad run status", func(t *testing.T) {
		s := base()
		s.Expect.Status = "maybe"
		assert.Error(t, s.Validate())
	})

	t.Run("bad step status", func(t *testing.T) {
		s := base()
		s.Expect.Steps = []StepExpectation{{Name: "checkout", Status: "exploded"}}
		assert.Error(t, s.Validate())
	})
}
