// Package ingest turns long-format trial exports into model.Trial rows.
//
// It is the boundary between files and the engine: columns are matched by
// header name, missing-value tokens become nil, and values that cannot be
// parsed fail the whole table with a model.DomainError. Label and condition
// vocabularies are checked later by the reliance deriver.
package ingest

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/reliance-cli/internal/model"
)

// Raw column names.
const (
	ColParticipant       = "participant_code"
	ColCase              = "case_id"
	ColTrialIndex        = "trial_index"
	ColPhase             = "phase"
	ColCondition         = "condition"
	ColYTrue             = "y_true"
	ColPointPred         = "point_pred_cal"
	ColInitialDecision   = "initial_decision"
	ColFinalDecision     = "final_decision"
	ColInitialConfidence = "initial_confidence"
	ColFinalConfidence   = "final_confidence"
)

// Decoder maps header-addressed string rows to trials.
type Decoder struct {
	labels []model.Label
	codes  map[string]model.Label
}

// NewDecoder returns a decoder for the experiment's label set. codes maps
// numeric decision codes used by survey exports ("1") to labels; it may be nil.
func NewDecoder(exp *model.Experiment, codes map[string]model.Label) *Decoder {
	d := &Decoder{labels: exp.Labels.Labels(), codes: make(map[string]model.Label, len(codes))}
	for k, v := range codes {
		d.codes[canonicalCode(k)] = model.Label(strings.ToLower(strings.TrimSpace(string(v))))
	}
	return d
}

// RequiredColumns lists the columns every input table must carry, in order.
func (d *Decoder) RequiredColumns() []string {
	cols := []string{ColParticipant, ColCase, ColTrialIndex, ColCondition, ColYTrue, ColPointPred}
	for _, l := range d.labels {
		cols = append(cols, model.ContainsColumn(l))
	}
	return append(cols, ColInitialDecision, ColFinalDecision, ColInitialConfidence, ColFinalConfidence)
}

// Decode parses rows, the first of which is the header. Header names are
// matched case-insensitively; unknown columns are ignored. Blank rows are
// skipped. Every required column that is absent is reported in a single
// *model.SchemaError.
func (d *Decoder) Decode(rows [][]string) ([]model.Trial, error) {
	if len(rows) == 0 {
		return nil, &model.SchemaError{Columns: d.RequiredColumns()}
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	var missing []string
	for _, c := range d.RequiredColumns() {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &model.SchemaError{Columns: missing}
	}
	_, hasPhase := index[ColPhase]

	trials := make([]model.Trial, 0, len(rows)-1)
	skipped := 0
	for _, rec := range rows[1:] {
		if blankRecord(rec) {
			skipped++
			continue
		}
		r := &record{row: len(trials), cells: rec, index: index}
		t, err := d.decodeRow(r, hasPhase)
		if err != nil {
			return nil, err
		}
		trials = append(trials, t)
	}

	zap.L().Debug("ingest: decoded trial table",
		zap.Int("trials", len(trials)),
		zap.Int("blank_rows", skipped),
		zap.Bool("phase_column", hasPhase),
	)
	return trials, nil
}

func (d *Decoder) decodeRow(r *record, hasPhase bool) (model.Trial, error) {
	t := model.Trial{
		ParticipantCode: r.text(ColParticipant),
		CaseID:          r.text(ColCase),
		Condition:       model.CanonicalCondition(r.raw(ColCondition)),
		YTrue:           d.label(r.raw(ColYTrue)),
		PointPredCal:    d.label(r.raw(ColPointPred)),
		InitialDecision: d.label(r.raw(ColInitialDecision)),
		FinalDecision:   d.label(r.raw(ColFinalDecision)),
	}

	idx, err := r.integer(ColTrialIndex)
	if err != nil {
		return t, err
	}
	if idx == nil {
		return t, r.domainError(ColTrialIndex, "trial index is required")
	}
	t.TrialIndex = *idx

	if t.InitialConfidence, err = r.integer(ColInitialConfidence); err != nil {
		return t, err
	}
	if t.FinalConfidence, err = r.integer(ColFinalConfidence); err != nil {
		return t, err
	}

	t.CPContains = make(map[model.Label]bool, len(d.labels))
	for _, l := range d.labels {
		b, err := r.boolean(model.ContainsColumn(l))
		if err != nil {
			return t, err
		}
		if b != nil {
			t.CPContains[l] = *b
		}
	}

	if hasPhase {
		switch p := model.Phase(strings.ToLower(r.text(ColPhase))); p {
		case "", model.PhaseExample, model.PhaseMain:
			t.Phase = p
		default:
			return t, r.domainError(ColPhase, "expected example or main")
		}
	}
	return t, nil
}

// label normalizes a decision or ground-truth cell. Numeric codes are mapped
// through the code table; unmapped values pass through lower-cased so the
// reliance deriver can reject them.
func (d *Decoder) label(raw string) model.Label {
	raw = strings.TrimSpace(raw)
	if model.IsMissing(raw) {
		return ""
	}
	if l, ok := d.codes[canonicalCode(raw)]; ok {
		return l
	}
	return model.Label(strings.ToLower(raw))
}

// canonicalCode renders "2", "2.0" and " 2 " identically.
func canonicalCode(s string) string {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
		return strconv.Itoa(int(f))
	}
	return strings.ToLower(s)
}

type record struct {
	row   int
	cells []string
	index map[string]int
}

func (r *record) raw(col string) string {
	i := r.index[col]
	if i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r *record) text(col string) string {
	v := r.raw(col)
	if model.IsMissing(v) {
		return ""
	}
	return v
}

func (r *record) integer(col string) (*int, error) {
	v := r.raw(col)
	if model.IsMissing(v) {
		return nil, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return &n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, r.domainError(col, "expected an integer")
	}
	n := int(f)
	return &n, nil
}

func (r *record) boolean(col string) (*bool, error) {
	v := r.raw(col)
	if model.IsMissing(v) {
		return nil, nil
	}
	switch strings.ToLower(v) {
	case "1", "1.0", "true", "t", "yes":
		return model.Bool(true), nil
	case "0", "0.0", "false", "f", "no":
		return model.Bool(false), nil
	}
	return nil, r.domainError(col, "expected a boolean indicator")
}

func (r *record) domainError(col, reason string) error {
	return &model.DomainError{Row: r.row, Column: col, Value: r.raw(col), Reason: reason}
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
