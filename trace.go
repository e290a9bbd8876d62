package hotstate

import (
	"encoding/json"
)

// Outcome reports how Revive obtained the live value for an entry.
type Outcome string

const (
	// OutcomeReused means a compatible value was located in the destination.
	OutcomeReused Outcome = "reused"
	// OutcomeAllocated means nothing compatible was found and a new container
	// or cell was created.
	OutcomeAllocated Outcome = "allocated"
	// OutcomeMissing means a keep entry found nothing to recover.
	OutcomeMissing Outcome = "missing"
)

// Trace records the decisions Revive made, in resolution order.
type Trace struct {
	Decisions []Decision `json:"decisions"`
	Deleted   []string   `json:"deleted,omitempty"`
}

// Decision details the resolution of one non-primitive entry.
type Decision struct {
	Index   int     `json:"index"`
	Tag     Tag     `json:"tag"`
	Outcome Outcome `json:"outcome"`
	Path    string  `json:"path,omitempty"`
}

// Decision returns the decision recorded for entry index.
func (t Trace) Decision(index int) (Decision, bool) {
	for _, decision := range t.Decisions {
		if decision.Index == index {
			return decision, true
		}
	}
	return Decision{}, false
}

// Count returns how many decisions had outcome.
func (t Trace) Count(outcome Outcome) int {
	count := 0
	for _, decision := range t.Decisions {
		if decision.Outcome == outcome {
			count++
		}
	}
	return count
}

// ToJSON serialises the trace for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
