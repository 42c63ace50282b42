package service

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Go-routine-4595/aquavigil/model"
)

func TestSynthesizeHistoryOrder(t *testing.T) {
	now := time.Now().UTC()
	rnd := rand.New(rand.NewSource(1))

	history, err := SynthesizeHistory(rnd, healthy("s1"), 24, now)
	require.NoError(t, err)
	require.Len(t, history, 24)

	for i := 1; i < len(history); i++ {
		assert.True(t, history[i].Timestamp.After(history[i-1].Timestamp), "point %d is not after point %d", i, i-1)
		assert.Equal(t, time.Hour, history[i].Timestamp.Sub(history[i-1].Timestamp))
	}
	assert.Equal(t, now, history[len(history)-1].Timestamp)
	assert.Equal(t, now.Add(-23*time.Hour), history[0].Timestamp)
	assert.WithinDuration(t, time.Now(), history[len(history)-1].Timestamp, time.Hour)
}

func TestSynthesizeHistoryUsesHistoricalSpread(t *testing.T) {
	rnd := rand.New(rand.NewSource(9))
	base := healthy("s1")

	history, err := SynthesizeHistory(rnd, base, 500, time.Now())
	require.NoError(t, err)

	var wider bool
	for _, p := range history {
		assertInBounds(t, p)
		assert.InDelta(t, base.PH, p.PH, 0.3+1e-9)
		assert.InDelta(t, base.TDS, p.TDS, 10)
		assert.InDelta(t, base.WaterLevel, p.WaterLevel, 5)
		if p.TDS-base.TDS > 5 || base.TDS-p.TDS > 5 {
			wider = true
		}
	}
	assert.True(t, wider, "historical spread should exceed the live one at least once")
}

func TestSynthesizeHistoryEdges(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))

	history, err := SynthesizeHistory(rnd, healthy("s1"), 0, time.Now())
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = SynthesizeHistory(rnd, healthy("s1"), -1, time.Now())
	assert.ErrorIs(t, err, model.ErrValidation)
}
