package models

import "time"

// PayloadKind discriminates what an experience record carries. Producers are
// expected to set it explicitly; InferKind exists as a fallback for records
// arriving from older producers that only ship a payload.
type PayloadKind string

const (
	PayloadText     PayloadKind = "text"
	PayloadNumeric  PayloadKind = "numeric"
	PayloadSequence PayloadKind = "sequence"
	PayloadAction   PayloadKind = "action"
)

// ExperienceRecord is a single unit of experience handed to the orchestrator.
// A record is "labeled" when it carries a confidence tag; unlabeled records
// form the pending pool in batch mode.
type ExperienceRecord struct {
	ID        string            `json:"id"`
	Kind      PayloadKind       `json:"kind,omitempty"`
	Text      string            `json:"text,omitempty"`
	Values    []float64         `json:"values,omitempty"`
	Sequence  []string          `json:"sequence,omitempty"`
	Action    string            `json:"action,omitempty"`
	Label     *float64          `json:"label,omitempty"` // confidence tag; nil means unlabeled
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Labeled reports whether the record carries a confidence tag.
func (r *ExperienceRecord) Labeled() bool {
	return r.Label != nil
}

// InferKind resolves the payload kind for a record. An explicit Kind wins,
// then a "kind" metadata tag, then payload shape. Defaults to text.
func (r *ExperienceRecord) InferKind() PayloadKind {
	if r.Kind != "" {
		return r.Kind
	}
	if r.Metadata != nil {
		switch PayloadKind(r.Metadata["kind"]) {
		case PayloadText, PayloadNumeric, PayloadSequence, PayloadAction:
			return PayloadKind(r.Metadata["kind"])
		}
	}
	switch {
	case r.Action != "":
		return PayloadAction
	case len(r.Sequence) > 0:
		return PayloadSequence
	case len(r.Values) > 0:
		return PayloadNumeric
	default:
		return PayloadText
	}
}

// Size is a rough payload size used for complexity estimation.
func (r *ExperienceRecord) Size() int {
	switch r.InferKind() {
	case PayloadNumeric:
		return len(r.Values)
	case PayloadSequence:
		return len(r.Sequence)
	case PayloadAction:
		return len(r.Action)
	default:
		return len(r.Text)
	}
}
