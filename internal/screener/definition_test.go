package screener

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsEmptyCriteria(t *testing.T) {
	def := Definition{Name: "empty", Logic: LogicAnd}
	err := def.Validate()

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
}

func TestValidateRejectsBadLogic(t *testing.T) {
	def := Definition{
		Name:     "bad",
		Logic:    "XOR",
		Criteria: []Criterion{{Field: "roe", Operator: OpGreater, Value: 10}},
	}
	var ve *ValidationError
	require.True(t, errors.As(def.Validate(), &ve))
}

func TestValidateRejectsUnknownField(t *testing.T) {
	def := Definition{
		Name:     "bad",
		Logic:    LogicAnd,
		Criteria: []Criterion{{Field: "shoe_size", Operator: OpGreater, Value: 10}},
	}
	var ve *ValidationError
	require.True(t, errors.As(def.Validate(), &ve))
	assert.Contains(t, ve.Error(), "shoe_size")
}

func TestValidateRejectsBadOperator(t *testing.T) {
	def := Definition{
		Name:     "bad",
		Logic:    LogicAnd,
		Criteria: []Criterion{{Field: "roe", Operator: "~", Value: 10}},
	}
	var ve *ValidationError
	require.True(t, errors.As(def.Validate(), &ve))
}

func TestMatchesAndUnknownFails(t *testing.T) {
	// A strong known value cannot rescue a missing one under AND.
	def := Definition{
		Name:  "and",
		Logic: LogicAnd,
		Criteria: []Criterion{
			{Field: "roe", Operator: OpGreater, Value: 20},
			{Field: "debt_equity", Operator: OpLess, Value: 0.5},
		},
	}
	snap := snapWith(map[string]float64{"roe": 25})
	assert.False(t, def.Matches(snap))

	snap.SetMetric("debt_equity", 0.3)
	assert.True(t, def.Matches(snap))
}

func TestMatchesOrNeedsOneTrue(t *testing.T) {
	def := Definition{
		Name:  "or",
		Logic: LogicOr,
		Criteria: []Criterion{
			{Field: "roe", Operator: OpGreater, Value: 20},
			{Field: "debt_equity", Operator: OpLess, Value: 0.5},
		},
	}

	assert.True(t, def.Matches(snapWith(map[string]float64{"roe": 25})))
	assert.False(t, def.Matches(snapWith(map[string]float64{"roe": 10})))
	// All unknown is a failure, not a wildcard match.
	assert.False(t, def.Matches(snapWith(nil)))
}

func TestPredefinedScreens(t *testing.T) {
	defs := List()
	require.Len(t, defs, 5)
	assert.Equal(t, "value", defs[0].Key)
	assert.Equal(t, "turnaround", defs[4].Key)

	for _, def := range defs {
		assert.NoError(t, def.Validate(), def.Key)
	}
}

func TestGetUnknownScreen(t *testing.T) {
	_, err := Get("momentum")
	assert.ErrorIs(t, err, ErrScreenNotFound)
}

func TestGetValueScreen(t *testing.T) {
	def, err := Get("value")
	require.NoError(t, err)
	assert.Equal(t, LogicAnd, def.Logic)
	assert.NotEmpty(t, def.Criteria)
}
