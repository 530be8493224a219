package zerolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Swind/go-green-runner/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := New(zerolog.New(&buf).Level(zerolog.InfoLevel))

	log.Debug("hidden")
	log.Info("spawned", core.F("task", core.TaskID(2)), core.F("name", "worker"))
	log.Warn("rejected", core.F("reason", "pool exhausted"))
	log.Error("panicked", core.F("err", errors.New("boom")))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "spawned", lines[0]["message"])
	assert.Equal(t, float64(2), lines[0]["task"])
	assert.Equal(t, "worker", lines[0]["name"])

	assert.Equal(t, "warn", lines[1]["level"])
	assert.Equal(t, "pool exhausted", lines[1]["reason"])

	assert.Equal(t, "error", lines[2]["level"])
	assert.Equal(t, "boom", lines[2]["err"])
}

// TestLogger_Runtime tests the adapter wired into a runtime
func TestLogger_Runtime(t *testing.T) {
	var buf bytes.Buffer
	rt, err := core.NewRuntimeWithConfig(2, &core.RuntimeConfig{
		Name:      "logged",
		StackSize: 4096,
		Logger:    New(zerolog.New(&buf).Level(zerolog.DebugLevel)),
	})
	require.NoError(t, err)

	rt.MustSpawn(func() {})
	rt.Loop()

	var messages []string
	for _, line := range decodeLines(t, &buf) {
		messages = append(messages, line["message"].(string))
		assert.Equal(t, "logged", line["runtime"])
	}
	assert.Equal(t, []string{"runtime created", "task spawned", "task finished", "run loop finished"}, messages)
}

func TestPanicHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPanicHandler(zerolog.New(&buf))

	handler.HandlePanic("rt", core.TaskID(4), "boom", []byte("goroutine 7 [running]"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "error", lines[0]["level"])
	assert.Equal(t, "task panic recovered", lines[0]["message"])
	assert.Equal(t, "rt", lines[0]["runtime"])
	assert.Equal(t, float64(4), lines[0]["task"])
	assert.Equal(t, "boom", lines[0]["panic"])
	assert.Equal(t, "goroutine 7 [running]", lines[0]["stack"])
}
