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
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenario(t, `
name: sample
bootstrap: alice
flow:
  - op: register_act
    as: alice
    args:
      business_number: NDA-1
  - op: validate_act
    as: alice
    args:
      act: 1
      code: HBQK002
    expect: ok
assertions:
  - type: chain_ok
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", s.Name)
	assert.Equal(t, "alice", s.Bootstrap)
	require.Len(t, s.Flow, 2)
	assert.Equal(t, "register_act", s.Flow[0].Op)
	assert.Equal(t, "NDA-1", s.Flow[0].Args["business_number"])
	assert.Len(t, s.Assertions, 1)
}

func TestLoadScenarioErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name: "missing name",
			content: `
bootstrap: alice
flow:
  - {op: register_act, as: alice}
`,
			wantMsg: "name is required",
		},
		{
			name: "missing bootstrap",
			content: `
name: x
flow:
  - {op: register_act, as: alice}
`,
			wantMsg: "bootstrap principal is required",
		},
		{
			name: "empty flow",
			content: `
name: x
bootstrap: alice
`,
			wantMsg: "flow list is required",
		},
		{
			name: "unknown op",
			content: `
name: x
bootstrap: alice
flow:
  - {op: teleport_act, as: alice}
`,
			wantMsg: `unknown op "teleport_act"`,
		},
		{
			name: "step without principal",
			content: `
name: x
bootstrap: alice
flow:
  - {op: register_act}
`,
			wantMsg: "as is required",
		},
		{
			name: "setup step expecting failure",
			content: `
name: x
bootstrap: alice
setup:
  - {op: register_act, as: alice, expect: UNAUTHORIZED}
flow:
  - {op: register_act, as: alice}
`,
			wantMsg: "setup steps must succeed",
		},
		{
			name: "unknown field",
			content: `
name: x
bootstrap: alice
flows:
  - {op: register_act, as: alice}
`,
			wantMsg: "parse scenario",
		},
		{
			name: "assertion without state",
			content: `
name: x
bootstrap: alice
flow:
  - {op: register_act, as: alice}
assertions:
  - {type: act_state, act_id: 1}
`,
			wantMsg: "state is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadScenario_Fixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)
			assert.NotEmpty(t, s.Name)
			assert.NotEmpty(t, s.Flow)
		})
	}
}
