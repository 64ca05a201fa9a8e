package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The global logger initializes once per process, so one test owns the
// output buffer and the rest piggyback on it.
func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, "debug", false)

	// Later Init calls are no-ops.
	Init(&bytes.Buffer{}, "error", true)

	Info("server starting", map[string]interface{}{"addr": "127.0.0.1:8090"})
	Warn("slow consumer", map[string]interface{}{"client": "c1"}, map[string]interface{}{"dropped": 3})
	Error("import failed", errors.New("disk full"))
	Debug("fine detail")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "server starting", entry["message"])
	assert.Equal(t, "127.0.0.1:8090", entry["addr"])
	assert.NotEmpty(t, entry["time"])

	// Multiple field maps merge into one entry.
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "c1", entry["client"])
	assert.Equal(t, float64(3), entry["dropped"])

	require.NoError(t, json.Unmarshal([]byte(lines[2]), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "disk full", entry["error"])

	require.NotNil(t, Get())
}

func TestMerge(t *testing.T) {
	assert.Nil(t, merge(nil))

	one := map[string]interface{}{"a": 1}
	assert.Equal(t, one, merge([]map[string]interface{}{one}))

	merged := merge([]map[string]interface{}{
		{"a": 1, "b": 2},
		{"b": 3, "c": 4},
	})
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 3, "c": 4}, merged)
}
