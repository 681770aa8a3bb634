package batch

import (
	"fmt"
	"time"

	"github.com/joshuapare/regremote/pkg/types"
)

// State is the terminal state of one host.
type State int

const (
	Succeeded State = iota
	Failed
	Skipped
)

func (s State) String() string {
	switch s {
	case Succeeded:
		return "Succeeded"
	case Failed:
		return "Failed"
	case Skipped:
		return "Skipped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TestResult answers an existence test for one host.
type TestResult struct {
	ComputerName string     `json:"computerName"`
	Hive         types.Hive `json:"hive"`
	Key          string     `json:"key"`
	Value        string     `json:"value,omitempty"` // empty for key tests
	Exists       bool       `json:"exists"`
}

// KeyEntry is one subkey name reported by a key listing.
type KeyEntry struct {
	ComputerName string     `json:"computerName"`
	Hive         types.Hive `json:"hive"`
	Key          string     `json:"key"`
	Name         string     `json:"name"`
}

// HostReport records everything that happened to one input host.
type HostReport struct {
	Input        string        `json:"input"`        // host as given, possibly empty
	ComputerName string        `json:"computerName"` // resolved host
	State        State         `json:"state"`
	Stage        string        `json:"stage,omitempty"` // step that ended a non-successful host
	Reason       string        `json:"reason,omitempty"`
	Err          error         `json:"-"`
	Duration     time.Duration `json:"duration"`

	Results []*types.Result `json:"-"`
	Tests   []TestResult    `json:"-"`
	Keys    []KeyEntry      `json:"-"`
}

// Failure is the per-host error record for a Failed host.
type Failure struct {
	Host    string        `json:"host"`
	Kind    types.ErrKind `json:"kind"`
	Stage   string        `json:"stage"`
	Message string        `json:"message"`
	Err     error         `json:"-"`
}

// Outcome is the aggregate of one Run. Every slice is in input-host order.
type Outcome struct {
	RunID     string          `json:"runId"`
	Operation string          `json:"operation"`
	Results   []*types.Result `json:"results"`
	Tests     []TestResult    `json:"tests,omitempty"`
	Keys      []KeyEntry      `json:"keys,omitempty"`
	Hosts     []HostReport    `json:"hosts"`
	Failures  []Failure       `json:"failures"`
}

// Count returns how many hosts ended in state s.
func (o *Outcome) Count(s State) int {
	n := 0
	for _, h := range o.Hosts {
		if h.State == s {
			n++
		}
	}
	return n
}

// HasFailures reports whether any host Failed.
func (o *Outcome) HasFailures() bool {
	return len(o.Failures) > 0
}

// Skipped returns the reports of skipped hosts.
func (o *Outcome) Skipped() []HostReport {
	var out []HostReport
	for _, h := range o.Hosts {
		if h.State == Skipped {
			out = append(out, h)
		}
	}
	return out
}

// Fatal returns the first failure that indicates a usage bug in the calling
// layer (SessionClosed), or nil.
func (o *Outcome) Fatal() *Failure {
	for i := range o.Failures {
		if o.Failures[i].Kind.Fatal() {
			return &o.Failures[i]
		}
	}
	return nil
}

func assemble(runID, op string, reports []HostReport) *Outcome {
	out := &Outcome{
		RunID:     runID,
		Operation: op,
		Results:   []*types.Result{},
		Hosts:     reports,
		Failures:  []Failure{},
	}
	for _, h := range reports {
		switch h.State {
		case Succeeded:
			out.Results = append(out.Results, h.Results...)
			out.Tests = append(out.Tests, h.Tests...)
			out.Keys = append(out.Keys, h.Keys...)
		case Failed:
			kind, _ := types.KindOf(h.Err)
			out.Failures = append(out.Failures, Failure{
				Host:    h.ComputerName,
				Kind:    kind,
				Stage:   h.Stage,
				Message: h.Reason,
				Err:     h.Err,
			})
		}
	}
	return out
}
