package display

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Go-routine-4595/aquavigil/model"
)

func TestSendWritesOneLinePerMessage(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplayTo(&buf)

	ts := time.Date(2025, 1, 27, 10, 30, 0, 0, time.UTC)
	require.NoError(t, d.Send(model.Message{Type: model.MessageAlerts, Timestamp: ts, Alerts: []model.Alert{{ID: "status-sensors4"}}}))
	require.NoError(t, d.Send(model.Message{Type: model.MessageContact, Timestamp: ts, Contact: &model.ContactMessage{Name: "n"}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var got model.Message
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, model.MessageAlerts, got.Type)
	assert.Equal(t, "status-sensors4", got.Alerts[0].ID)
	assert.NotContains(t, lines[0], `"contact"`)
	assert.Contains(t, lines[1], `"name":"n"`)
}
