package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Go-routine-4595/aquavigil/model"
)

func TestDefaultFixture(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 3, s.CountByStatus(model.StatusActive))
	assert.Equal(t, 1, s.CountByStatus(model.StatusMaintenance))

	all := s.All()
	require.Len(t, all, 4)
	assert.Equal(t, []string{"sensors1", "sensors2", "sensors3", "sensors4"},
		[]string{all[0].ID, all[1].ID, all[2].ID, all[3].ID})

	m, err := s.Get("sensors1")
	require.NoError(t, err)
	assert.Equal(t, "Pipeline Module A1", m.Name)
	assert.Equal(t, 7.2, m.PH)
	assert.Equal(t, 350, m.TDS)
	assert.Equal(t, [2]float64{28.6139, 77.2090}, m.Coordinates)
	assert.Equal(t, "2024-12-01", m.InstallationDate)
}

func TestGetUnknown(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	_, err = s.Get("nope")
	require.ErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), "not found")
}

func TestAllReturnsCopies(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	all := s.All()
	all[0].PH = 1
	all[0].Name = "changed"

	m, err := s.Get(all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 7.2, m.PH)
	assert.Equal(t, "Pipeline Module A1", m.Name)
}

func TestNewRejectsBadFixtures(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, model.ErrEmptyInput)

	_, err = New([]model.SensorModule{
		{ID: "a", Status: model.StatusActive},
		{ID: "a", Status: model.StatusActive},
	})
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = New([]model.SensorModule{{ID: "", Status: model.StatusActive}})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = New([]model.SensorModule{{ID: "b", Status: "broken"}})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestDecodeSkipsBlankLines(t *testing.T) {
	in := `{"id":"x1","name":"X","status":"active","ph":7,"tds":300}

{"id":"x2","name":"Y","status":"maintenance","ph":7,"tds":300}
`
	s, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestDecodeReportsLine(t *testing.T) {
	_, err := Decode(strings.NewReader("{\"id\":\"x1\",\"status\":\"active\"}\n{bad json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modules.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"only","name":"Only","status":"active"}`+"\n"), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)

	s, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, s.Len())
}
