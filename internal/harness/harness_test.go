package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every scenario under testdata/scenarios and
// compares its trace against the matching golden file.
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, "load %s", path)

		t.Run(scenario.Name, func(t *testing.T) {
			RunWithGolden(t, scenario)
		})
	}
}

func TestRun_RecordsExpectationMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:      "mismatch",
		Bootstrap: "alice",
		Flow: []Step{
			{
				Op: "register_act",
				As: "alice",
				Args: map[string]interface{}{
					"business_number": "NDA-1",
				},
				Expect: "UNAUTHORIZED",
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Passed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "outcome ok, want UNAUTHORIZED")
}

func TestRun_OrdinalOutOfRange(t *testing.T) {
	scenario := &Scenario{
		Name:      "bad-ordinal",
		Bootstrap: "alice",
		Flow: []Step{
			{
				Op:   "validate_act",
				As:   "alice",
				Args: map[string]interface{}{"act": 3, "code": "HBQK002"},
			},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ordinal 3 out of range")
}

func TestRenderTrace(t *testing.T) {
	trace := []TraceEvent{
		{Seq: 1, Op: "register_act", Actor: "bob", Outcome: "ok", Detail: "act#1 NDA-1"},
		{Seq: 2, Op: "validate_act", Actor: "bob", Outcome: "ALREADY_CLOSED", Detail: "act#1 HBQK002"},
		{Seq: 3, Op: "revoke", Actor: "alice", Outcome: "ok"},
	}

	got := string(RenderTrace("sample", trace))
	want := "scenario: sample\n" +
		"001 register_act as=bob -> ok (act#1 NDA-1)\n" +
		"002 validate_act as=bob -> ALREADY_CLOSED (act#1 HBQK002)\n" +
		"003 revoke as=alice -> ok\n"
	assert.Equal(t, want, got)
}
