package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := buf.String()
	idx := strings.Index(line, "AUDIT: ")
	require.GreaterOrEqual(t, idx, 0)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(line[idx+len("AUDIT: "):])), &out))
	buf.Reset()
	return out
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	t.Run("applied", func(t *testing.T) {
		logger.LogApplied(7, 42, "recarga", decimal.NewFromInt(20), decimal.NewFromInt(44), "app")

		event := decodeLine(t, &buf)
		assert.Equal(t, "recarga", event["event_type"])
		assert.Equal(t, float64(42), event["transacao_id"])
		assert.Equal(t, "20", event["amount"])
		assert.Equal(t, "44", event["balance"])
		assert.Equal(t, StatusApplied, event["status"])
	})

	t.Run("rejected", func(t *testing.T) {
		logger.LogRejected(7, "debito", decimal.NewFromInt(100), "insufficient funds")

		event := decodeLine(t, &buf)
		assert.Equal(t, StatusRejected, event["status"])
		assert.NotContains(t, event, "transacao_id")
		assert.Equal(t, "insufficient funds", event["details"].(map[string]any)["reason"])
	})

	t.Run("error", func(t *testing.T) {
		logger.LogError(7, "recarga", "commit", errors.New("connection reset"))

		event := decodeLine(t, &buf)
		assert.Equal(t, StatusFailed, event["status"])
		assert.Equal(t, "commit", event["details"].(map[string]any)["op"])
	})
}
