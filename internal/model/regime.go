package model

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Regime is the decision regime a trial was run under.
type Regime int

const (
	// RegimeUnknown marks a trial whose condition is missing.
	RegimeUnknown Regime = iota
	// RegimePointPrediction: the AI shows a single label.
	RegimePointPrediction
	// RegimeSetPrediction: the AI shows a candidate set of labels.
	RegimeSetPrediction
)

func (r Regime) String() string {
	switch r {
	case RegimePointPrediction:
		return "point_prediction"
	case RegimeSetPrediction:
		return "set_prediction"
	default:
		return "unknown"
	}
}

// Condition is a canonical experiment condition code such as "C1".
type Condition string

// CanonicalCondition trims a raw condition value and maps bare integer codes
// n to "Cn". Other values are upper-cased. Missing values map to "".
func CanonicalCondition(raw string) Condition {
	raw = strings.TrimSpace(raw)
	if isMissing(raw) {
		return ""
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int(f)) {
		return Condition("C" + strconv.Itoa(int(f)))
	}
	return Condition(strings.ToUpper(raw))
}

// ConditionMap assigns every known condition to exactly one regime.
type ConditionMap struct {
	regimes map[Condition]Regime
	order   []Condition
}

// NewConditionMap builds a ConditionMap from the point-prediction and
// set-prediction groups. Both groups must be non-empty and disjoint.
func NewConditionMap(point, set []Condition) (*ConditionMap, error) {
	if len(point) == 0 || len(set) == 0 {
		return nil, eris.New("model: both regime groups need at least one condition")
	}
	m := &ConditionMap{regimes: make(map[Condition]Regime, len(point)+len(set))}
	add := func(c Condition, r Regime) error {
		c = CanonicalCondition(string(c))
		if c == "" {
			return eris.New("model: empty condition code")
		}
		if prev, ok := m.regimes[c]; ok {
			return eris.Errorf("model: condition %q assigned to %s and %s", c, prev, r)
		}
		m.regimes[c] = r
		m.order = append(m.order, c)
		return nil
	}
	for _, c := range point {
		if err := add(c, RegimePointPrediction); err != nil {
			return nil, err
		}
	}
	for _, c := range set {
		if err := add(c, RegimeSetPrediction); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Resolve returns the regime for c. ok is false when c is not in either group.
func (m *ConditionMap) Resolve(c Condition) (Regime, bool) {
	r, ok := m.regimes[c]
	return r, ok
}

// Conditions returns all known conditions, point group first.
func (m *ConditionMap) Conditions() []Condition {
	out := make([]Condition, len(m.order))
	copy(out, m.order)
	return out
}

// Experiment bundles the closed vocabularies a trial table is validated against.
type Experiment struct {
	Labels        *LabelSet
	Conditions    *ConditionMap
	ConfidenceMin int
	ConfidenceMax int
}

// NewExperiment validates and assembles an Experiment.
func NewExperiment(labels *LabelSet, conds *ConditionMap, confMin, confMax int) (*Experiment, error) {
	if labels == nil || conds == nil {
		return nil, eris.New("model: experiment needs labels and conditions")
	}
	if confMax <= confMin {
		return nil, eris.Errorf("model: confidence range [%d, %d] is empty", confMin, confMax)
	}
	return &Experiment{
		Labels:        labels,
		Conditions:    conds,
		ConfidenceMin: confMin,
		ConfidenceMax: confMax,
	}, nil
}

// DefaultExperiment returns labels {poor, standard, good}, conditions
// C1/C2 (point) and C3 (set), and a 1..5 confidence scale.
func DefaultExperiment() *Experiment {
	labels, _ := NewLabelSet(DefaultLabels())
	conds, _ := NewConditionMap([]Condition{"C1", "C2"}, []Condition{"C3"})
	return &Experiment{Labels: labels, Conditions: conds, ConfidenceMin: 1, ConfidenceMax: 5}
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "na", "nan", "null", "none", "<na>":
		return true
	}
	return false
}

// IsMissing reports whether a raw cell value denotes a missing value.
func IsMissing(raw string) bool { return isMissing(strings.TrimSpace(raw)) }
