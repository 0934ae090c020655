// Package harness runs conformance scenarios against a real ledger.
//
// Each scenario gets a fresh in-memory store, a deterministic wall
// clock and sequential external refs, then executes its steps through
// the registry exactly as production callers would. Traces are stable
// across runs, which makes golden comparison possible.
package harness

import (
	"context"
	"fmt"

	"github.com/caduceon/acteledger/internal/record"
	"github.com/caduceon/acteledger/internal/registry"
	"github.com/caduceon/acteledger/internal/store"
	"github.com/caduceon/acteledger/internal/testutil"
)

// Harness executes one scenario run.
type Harness struct {
	ctx      context.Context
	registry *registry.Registry

	// Acts and overrides created during the run, in creation order.
	// Scenario steps reference them by 1-based ordinal, so scenarios
	// stay valid regardless of what ids the store assigns.
	actIDs      []int64
	overrideIDs []int64
}

// Run executes a scenario and returns its result. Setup failures and
// harness-level problems return an error; expectation mismatches and
// assertion failures are recorded in the result instead.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	reg, err := registry.New(ctx, st,
		registry.WithNow(testutil.DefaultWallClock().Now),
		registry.WithRefGenerator(testutil.NewSeqRefGenerator()),
	)
	if err != nil {
		return nil, fmt.Errorf("create registry: %w", err)
	}

	if err := reg.Bootstrap(ctx, record.Principal(scenario.Bootstrap)); err != nil {
		return nil, fmt.Errorf("bootstrap %s: %w", scenario.Bootstrap, err)
	}

	h := &Harness{ctx: ctx, registry: reg}
	result := NewResult()

	var seq int64
	for i, step := range scenario.Setup {
		seq++
		detail, err := h.runStep(step)
		if err != nil {
			return nil, fmt.Errorf("setup[%d] %s: %w", i, step.Op, err)
		}
		result.AddTrace(TraceEvent{Seq: seq, Op: step.Op, Actor: step.As, Outcome: "ok", Detail: detail})
	}

	for i, step := range scenario.Flow {
		seq++
		detail, err := h.runStep(step)
		outcome := outcomeOf(err)
		if outcome == "error" {
			return nil, fmt.Errorf("flow[%d] %s: %w", i, step.Op, err)
		}

		expected := step.Expect
		if expected == "" {
			expected = "ok"
		}
		if outcome != expected {
			result.AddError("flow[%d] %s: outcome %s, want %s", i, step.Op, outcome, expected)
		}
		result.AddTrace(TraceEvent{Seq: seq, Op: step.Op, Actor: step.As, Outcome: outcome, Detail: detail})
	}

	h.evaluateAssertions(scenario, result)

	return result, nil
}

// outcomeOf maps a step error to a trace outcome. Ledger refusals are
// ordinary outcomes; anything else is a harness-level error.
func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if code := registry.CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}

// stepRunner executes one operation, returning a short detail string
// for the trace.
type stepRunner func(h *Harness, step Step) (string, error)

var stepRunners = map[string]stepRunner{
	"register_act":     runRegisterAct,
	"validate_act":     runValidateAct,
	"reject_act":       runRejectAct,
	"create_override":  runCreateOverride,
	"approve_override": runApproveOverride,
	"register_version": runRegisterVersion,
	"audit_note":       runAuditNote,
	"grant":            runGrant,
	"revoke":           runRevoke,
}

func (h *Harness) runStep(step Step) (string, error) {
	return stepRunners[step.Op](h, step)
}

func runRegisterAct(h *Harness, step Step) (string, error) {
	actID, err := h.registry.RegisterAct(h.ctx, record.Principal(step.As),
		argString(step, "business_number"),
		argString(step, "subject"),
		argString(step, "code"),
		argString(step, "version"),
		argString(step, "justification"),
	)
	if err != nil {
		return argString(step, "business_number"), err
	}
	h.actIDs = append(h.actIDs, actID)
	return fmt.Sprintf("act#%d %s", len(h.actIDs), argString(step, "business_number")), nil
}

func runValidateAct(h *Harness, step Step) (string, error) {
	actID, err := h.actID(step)
	if err != nil {
		return "", err
	}
	detail := fmt.Sprintf("act#%d %s", argInt(step, "act"), argString(step, "code"))
	return detail, h.registry.ValidateAct(h.ctx, record.Principal(step.As), actID,
		argString(step, "code"), argString(step, "justification"))
}

func runRejectAct(h *Harness, step Step) (string, error) {
	actID, err := h.actID(step)
	if err != nil {
		return "", err
	}
	detail := fmt.Sprintf("act#%d", argInt(step, "act"))
	return detail, h.registry.RejectAct(h.ctx, record.Principal(step.As), actID,
		argString(step, "reason"))
}

func runCreateOverride(h *Harness, step Step) (string, error) {
	actID, err := h.actID(step)
	if err != nil {
		return "", err
	}
	overrideID, err := h.registry.CreateOverride(h.ctx, record.Principal(step.As), actID,
		argString(step, "original_code"),
		argString(step, "override_code"),
		argString(step, "justification"),
		argString(step, "signature"),
	)
	if err != nil {
		return fmt.Sprintf("act#%d", argInt(step, "act")), err
	}
	h.overrideIDs = append(h.overrideIDs, overrideID)
	return fmt.Sprintf("override#%d on act#%d", len(h.overrideIDs), argInt(step, "act")), nil
}

func runApproveOverride(h *Harness, step Step) (string, error) {
	ord := argInt(step, "override")
	if ord <= 0 || int(ord) > len(h.overrideIDs) {
		return "", fmt.Errorf("override ordinal %d out of range", ord)
	}
	detail := fmt.Sprintf("override#%d", ord)
	return detail, h.registry.ApproveOverride(h.ctx, record.Principal(step.As), h.overrideIDs[ord-1])
}

func runRegisterVersion(h *Harness, step Step) (string, error) {
	_, err := h.registry.RegisterVersion(h.ctx, record.Principal(step.As),
		argString(step, "code"),
		argString(step, "name"),
		argString(step, "checksum"),
		argInt(step, "effective_from"),
		argInt(step, "effective_until"),
	)
	return argString(step, "code"), err
}

func runAuditNote(h *Harness, step Step) (string, error) {
	actID, err := h.actID(step)
	if err != nil {
		return "", err
	}

	action := argString(step, "action")
	if action == "" {
		action = "annotation"
	}
	values := record.Snapshot{}
	if fields, ok := step.Args["fields"].(map[string]interface{}); ok {
		for k, v := range fields {
			values[k] = record.StringValue(fmt.Sprintf("%v", v))
		}
	}

	_, err = h.registry.AppendAuditEntry(h.ctx, record.Principal(step.As), actID,
		action, record.EntityAct, actID, record.Snapshot{}, values)
	return fmt.Sprintf("act#%d %s", argInt(step, "act"), action), err
}

func runGrant(h *Harness, step Step) (string, error) {
	cap, err := record.ParseCapability(argString(step, "capability"))
	if err != nil {
		return "", err
	}
	subject := record.Principal(argString(step, "principal"))
	detail := fmt.Sprintf("%s to %s", cap, subject)
	return detail, h.registry.Grant(h.ctx, record.Principal(step.As), subject, cap)
}

func runRevoke(h *Harness, step Step) (string, error) {
	cap, err := record.ParseCapability(argString(step, "capability"))
	if err != nil {
		return "", err
	}
	subject := record.Principal(argString(step, "principal"))
	detail := fmt.Sprintf("%s from %s", cap, subject)
	return detail, h.registry.Revoke(h.ctx, record.Principal(step.As), subject, cap)
}

// actID resolves a step's "act" ordinal to the store id.
func (h *Harness) actID(step Step) (int64, error) {
	ord := argInt(step, "act")
	if ord <= 0 || int(ord) > len(h.actIDs) {
		return 0, fmt.Errorf("act ordinal %d out of range", ord)
	}
	return h.actIDs[ord-1], nil
}

func argString(step Step, key string) string {
	if v, ok := step.Args[key].(string); ok {
		return v
	}
	return ""
}

func argInt(step Step, key string) int64 {
	switch v := step.Args[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}
