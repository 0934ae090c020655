package harness

import "fmt"

// TraceEvent is one executed step's outcome, in execution order.
type TraceEvent struct {
	Seq     int64  `yaml:"seq"`
	Op      string `yaml:"op"`
	Actor   string `yaml:"actor"`
	Outcome string `yaml:"outcome"` // "ok" or a ledger error code
	Detail  string `yaml:"detail,omitempty"`
}

// Result holds a scenario execution's trace and failures.
type Result struct {
	Passed bool
	Trace  []TraceEvent
	Errors []string
}

// NewResult creates an empty passing result.
func NewResult() *Result {
	return &Result{Passed: true}
}

// AddTrace appends one trace event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(format string, args ...interface{}) {
	r.Passed = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}
