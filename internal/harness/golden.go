package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RenderTrace renders a trace as stable, line-oriented text:
//
//	001 register_act as=bob -> ok (act#1 NDA-2026-0001)
//
// The rendering contains no timestamps, ids or hashes, only logical
// ordering and outcomes, so it is identical on every run.
func RenderTrace(scenarioName string, trace []TraceEvent) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", scenarioName)
	for _, ev := range trace {
		fmt.Fprintf(&b, "%03d %s as=%s -> %s", ev.Seq, ev.Op, ev.Actor, ev.Outcome)
		if ev.Detail != "" {
			fmt.Fprintf(&b, " (%s)", ev.Detail)
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario, fails the test on expectation or
// assertion errors, and compares the rendered trace against
// testdata/golden/{name}.golden.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, msg := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, msg)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, RenderTrace(scenario.Name, result.Trace))
}
