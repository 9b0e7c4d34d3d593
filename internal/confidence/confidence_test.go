package confidence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reliance-cli/internal/model"
)

func TestDerive(t *testing.T) {
	t.Parallel()

	d, err := NewDeriver(1, 5)
	require.NoError(t, err)

	in := []model.Trial{
		{
			YTrue:             model.LabelGood,
			InitialDecision:   model.LabelPoor,
			FinalDecision:     model.LabelGood,
			InitialConfidence: model.Int(4),
			FinalConfidence:   model.Int(2),
		},
		{
			YTrue:             model.LabelPoor,
			InitialDecision:   model.LabelPoor,
			FinalDecision:     "",
			InitialConfidence: model.Int(3),
		},
	}

	out, err := d.Derive(in)
	require.NoError(t, err)
	require.Len(t, out, 2)

	require.NotNil(t, out[0].DeltaConfidence)
	assert.Equal(t, -2, *out[0].DeltaConfidence)
	assert.False(t, *out[0].InitialCorrect)
	assert.True(t, *out[0].FinalCorrect)

	assert.Nil(t, out[1].DeltaConfidence)
	assert.True(t, *out[1].InitialCorrect)
	assert.Nil(t, out[1].FinalCorrect)

	assert.Nil(t, in[0].DeltaConfidence, "input must not be modified")
}

func TestDeriveRejectsOutOfScale(t *testing.T) {
	t.Parallel()

	d, err := NewDeriver(1, 5)
	require.NoError(t, err)

	_, err = d.Derive([]model.Trial{{FinalConfidence: model.Int(7)}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrDomain))

	var de *model.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "final_confidence", de.Column)
	assert.Equal(t, "7", de.Value)
}

func TestNewDeriverRejectsEmptyScale(t *testing.T) {
	t.Parallel()
	_, err := NewDeriver(5, 1)
	assert.Error(t, err)
}

func TestDeltaAndCorrect(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, *Delta(model.Int(1), model.Int(4)))
	assert.Nil(t, Delta(nil, model.Int(4)))
	assert.True(t, *Correct(model.LabelGood, model.LabelGood))
	assert.Nil(t, Correct(model.LabelGood, ""))
}
