package fanout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Go-routine-4595/aquavigil/model"
)

type countingGateway struct {
	calls int
	err   error
}

func (g *countingGateway) Send(model.Message) error {
	g.calls++
	return g.err
}

func TestFanoutDeliversToAll(t *testing.T) {
	errDown := errors.New("down")
	a := &countingGateway{}
	b := &countingGateway{err: errDown}
	c := &countingGateway{}

	f := NewFanout().Add("a", a).Add("b", b).Add("c", c)
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, []string{"a", "b", "c"}, f.Names())

	err := f.Send(model.Message{Type: model.MessageTelemetry})
	require.Error(t, err)
	assert.ErrorIs(t, err, errDown)
	assert.Contains(t, err.Error(), "gateway b")

	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 1, c.calls)
}

func TestEmptyFanout(t *testing.T) {
	assert.NoError(t, NewFanout().Send(model.Message{}))
}
