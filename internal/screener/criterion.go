package screener

import "github.com/mauv0809/steady-garbanzo/internal/models"

// Operator is a numeric comparison operator in a criterion.
type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
)

func (o Operator) valid() bool {
	switch o {
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual, OpEqual, OpNotEqual:
		return true
	}
	return false
}

// Tristate is the result of evaluating one criterion. Unknown is a first
// class outcome, not a disguised false: it means the snapshot does not
// carry the referenced field at all.
type Tristate int8

const (
	False Tristate = iota
	True
	Unknown
)

// Criterion compares one snapshot field against a threshold.
type Criterion struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    float64  `json:"value"`
}

// Evaluate applies the criterion to a snapshot. A missing field yields
// Unknown. Equality is exact float comparison on the stored precision;
// upstream values are already rounded, so no epsilon is applied.
func (c Criterion) Evaluate(snap models.Snapshot) Tristate {
	actual, ok := snap.Metric(c.Field)
	if !ok {
		return Unknown
	}

	var match bool
	switch c.Operator {
	case OpGreater:
		match = actual > c.Value
	case OpLess:
		match = actual < c.Value
	case OpGreaterEqual:
		match = actual >= c.Value
	case OpLessEqual:
		match = actual <= c.Value
	case OpEqual:
		match = actual == c.Value
	case OpNotEqual:
		match = actual != c.Value
	default:
		return Unknown
	}

	if match {
		return True
	}
	return False
}
