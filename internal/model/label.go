// Package model defines the trial records, decision regimes, and error
// taxonomy shared by every stage of the trial-metrics engine.
package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Label is a categorical quality label. Ground truth, AI point predictions,
// and human decisions all draw from the same closed label set. The empty
// Label means the value is missing.
type Label string

// Default experiment labels.
const (
	LabelPoor     Label = "poor"
	LabelStandard Label = "standard"
	LabelGood     Label = "good"
)

// Missing reports whether the label is absent.
func (l Label) Missing() bool { return l == "" }

// DefaultLabels returns the label set used by the case-quality experiment.
func DefaultLabels() []Label {
	return []Label{LabelPoor, LabelStandard, LabelGood}
}

// LabelSet is a closed, ordered set of labels.
type LabelSet struct {
	labels []Label
	index  map[Label]int
}

// NewLabelSet builds a LabelSet. Labels are lower-cased; empty and duplicate
// labels are rejected.
func NewLabelSet(labels []Label) (*LabelSet, error) {
	if len(labels) == 0 {
		return nil, eris.New("model: label set is empty")
	}
	s := &LabelSet{
		labels: make([]Label, 0, len(labels)),
		index:  make(map[Label]int, len(labels)),
	}
	for _, l := range labels {
		l = Label(strings.ToLower(strings.TrimSpace(string(l))))
		if l.Missing() {
			return nil, eris.New("model: label set contains an empty label")
		}
		if _, dup := s.index[l]; dup {
			return nil, eris.Errorf("model: duplicate label %q", l)
		}
		s.index[l] = len(s.labels)
		s.labels = append(s.labels, l)
	}
	return s, nil
}

// Contains reports whether l is a member of the set.
func (s *LabelSet) Contains(l Label) bool {
	_, ok := s.index[l]
	return ok
}

// Labels returns the labels in declaration order.
func (s *LabelSet) Labels() []Label {
	out := make([]Label, len(s.labels))
	copy(out, s.labels)
	return out
}

// Len returns the number of labels.
func (s *LabelSet) Len() int { return len(s.labels) }

// ContainsColumn returns the set-membership column name for a label.
func ContainsColumn(l Label) string {
	return "cp_contains_" + string(l)
}
