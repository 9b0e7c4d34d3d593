package model

import (
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLabelSet(t *testing.T) {
	t.Parallel()

	s, err := NewLabelSet([]Label{"Poor", " standard ", "good"})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains(LabelPoor))
	assert.True(t, s.Contains(LabelStandard))
	assert.False(t, s.Contains("excellent"))
	assert.Equal(t, DefaultLabels(), s.Labels())

	_, err = NewLabelSet(nil)
	assert.Error(t, err)
	_, err = NewLabelSet([]Label{"good", "GOOD"})
	assert.Error(t, err)
	_, err = NewLabelSet([]Label{"good", ""})
	assert.Error(t, err)
}

func TestCanonicalCondition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want Condition
	}{
		{"C1", "C1"},
		{"c3", "C3"},
		{"1", "C1"},
		{"2.0", "C2"},
		{" 3 ", "C3"},
		{"", ""},
		{"NaN", ""},
		{"<NA>", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanonicalCondition(tt.raw), "raw=%q", tt.raw)
	}
}

func TestConditionMap(t *testing.T) {
	t.Parallel()

	m, err := NewConditionMap([]Condition{"C1", "2"}, []Condition{"C3"})
	require.NoError(t, err)

	r, ok := m.Resolve("C1")
	assert.True(t, ok)
	assert.Equal(t, RegimePointPrediction, r)

	r, ok = m.Resolve("C2")
	assert.True(t, ok)
	assert.Equal(t, RegimePointPrediction, r)

	r, ok = m.Resolve("C3")
	assert.True(t, ok)
	assert.Equal(t, RegimeSetPrediction, r)

	_, ok = m.Resolve("C9")
	assert.False(t, ok)

	assert.Equal(t, []Condition{"C1", "C2", "C3"}, m.Conditions())
}

func TestConditionMapRejectsOverlap(t *testing.T) {
	t.Parallel()

	_, err := NewConditionMap([]Condition{"C1"}, []Condition{"C1"})
	assert.Error(t, err)

	_, err = NewConditionMap(nil, []Condition{"C3"})
	assert.Error(t, err)
}

func TestNewExperiment(t *testing.T) {
	t.Parallel()

	def := DefaultExperiment()
	_, err := NewExperiment(def.Labels, def.Conditions, 5, 5)
	assert.Error(t, err)

	exp, err := NewExperiment(def.Labels, def.Conditions, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, exp.ConfidenceMax)
}

func TestTrialCloneIsDeep(t *testing.T) {
	t.Parallel()

	orig := Trial{
		ParticipantCode:   "p1",
		CPContains:        map[Label]bool{LabelGood: true},
		InitialConfidence: Int(3),
		Derived:           Derived{AICorrect: Bool(true)},
	}
	c := orig.Clone()
	c.CPContains[LabelGood] = false
	*c.InitialConfidence = 5
	*c.AICorrect = false

	assert.True(t, orig.CPContains[LabelGood])
	assert.Equal(t, 3, *orig.InitialConfidence)
	assert.True(t, *orig.AICorrect)
}

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	schema := eris.Wrap(&SchemaError{Columns: []string{"y_true"}}, "ingest: decode")
	assert.True(t, errors.Is(schema, ErrSchema))
	assert.False(t, errors.Is(schema, ErrDomain))
	var se *SchemaError
	require.True(t, errors.As(schema, &se))
	assert.Equal(t, []string{"y_true"}, se.Columns)

	domain := &DomainError{Row: 4, Column: "condition", Value: "C9", Reason: "unknown regime"}
	assert.True(t, errors.Is(domain, ErrDomain))
	assert.Contains(t, domain.Error(), "row 4")
	assert.Contains(t, domain.Error(), "unknown regime")
}
