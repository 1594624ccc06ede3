package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("json outside local", func(t *testing.T) {
		var buf bytes.Buffer
		NewWithWriter(&buf, "production", "info").Info("session committed", "principal_id", "p-1")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "session committed", line["msg"])
		assert.Equal(t, "p-1", line["principal_id"])
	})

	t.Run("level filters debug", func(t *testing.T) {
		var buf bytes.Buffer
		NewWithWriter(&buf, "production", "warn").Info("dropped")
		assert.Empty(t, buf.String())
	})

	t.Run("text handler locally", func(t *testing.T) {
		var buf bytes.Buffer
		NewWithWriter(&buf, "local", "debug").Debug("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})
}
