package model

// Phase identifies the block a trial belongs to.
type Phase string

// Trial phases.
const (
	PhaseExample Phase = "example"
	PhaseMain    Phase = "main"
)

// Trial is one participant's interaction with one case. Raw fields come from
// the ingestion boundary; Derived is written by the engine. Nil pointers and
// empty labels denote missing values.
type Trial struct {
	ParticipantCode   string         `json:"participant_code"`
	CaseID            string         `json:"case_id"`
	TrialIndex        int            `json:"trial_index"`
	Phase             Phase          `json:"phase,omitempty"`
	Condition         Condition      `json:"condition"`
	YTrue             Label          `json:"y_true"`
	PointPredCal      Label          `json:"point_pred_cal"`
	CPContains        map[Label]bool `json:"cp_contains"` // absent key = missing indicator
	InitialDecision   Label          `json:"initial_decision"`
	FinalDecision     Label          `json:"final_decision"`
	InitialConfidence *int           `json:"initial_confidence"`
	FinalConfidence   *int           `json:"final_confidence"`

	Derived
}

// Derived holds every engine-computed field.
type Derived struct {
	AICorrect           *bool `json:"ai_correct"`
	InitialAgreeAI      *bool `json:"initial_agree_ai"`
	FinalAgreeAI        *bool `json:"final_agree_ai"`
	Switched            *bool `json:"switched"`
	SwitchedToAI        *bool `json:"switched_to_ai"`
	OverReliance        *bool `json:"over_reliance"`
	UnderReliance       *bool `json:"under_reliance"`
	AppropriateReliance *bool `json:"appropriate_reliance"`
	SetSize             *int  `json:"set_size"`
	DeltaConfidence     *int  `json:"delta_confidence"`
	InitialCorrect      *bool `json:"initial_correct"`
	FinalCorrect        *bool `json:"final_correct"`
}

// Clone returns a deep copy so callers never share pointers or maps with
// the source trial.
func (t Trial) Clone() Trial {
	out := t
	if t.CPContains != nil {
		out.CPContains = make(map[Label]bool, len(t.CPContains))
		for k, v := range t.CPContains {
			out.CPContains[k] = v
		}
	}
	out.InitialConfidence = cloneInt(t.InitialConfidence)
	out.FinalConfidence = cloneInt(t.FinalConfidence)
	out.Derived = t.Derived.clone()
	return out
}

func (d Derived) clone() Derived {
	return Derived{
		AICorrect:           cloneBool(d.AICorrect),
		InitialAgreeAI:      cloneBool(d.InitialAgreeAI),
		FinalAgreeAI:        cloneBool(d.FinalAgreeAI),
		Switched:            cloneBool(d.Switched),
		SwitchedToAI:        cloneBool(d.SwitchedToAI),
		OverReliance:        cloneBool(d.OverReliance),
		UnderReliance:       cloneBool(d.UnderReliance),
		AppropriateReliance: cloneBool(d.AppropriateReliance),
		SetSize:             cloneInt(d.SetSize),
		DeltaConfidence:     cloneInt(d.DeltaConfidence),
		InitialCorrect:      cloneBool(d.InitialCorrect),
		FinalCorrect:        cloneBool(d.FinalCorrect),
	}
}

// CloneTrials deep-copies a slice of trials.
func CloneTrials(trials []Trial) []Trial {
	out := make([]Trial, len(trials))
	for i := range trials {
		out[i] = trials[i].Clone()
	}
	return out
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

func cloneBool(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
