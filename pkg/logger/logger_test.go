package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSONWithRunID(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Setup("debug", "json", &buf)

	ctx := WithRunID(context.Background(), "run-42")
	FromContext(ctx).Debug("query evaluated", "hits", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "run-42", rec["run_id"])
	assert.Equal(t, "query evaluated", rec["msg"])
	assert.EqualValues(t, 3, rec["hits"])
}

func TestSetupLevelFilters(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Setup("warn", "text", &buf)
	WithComponent("batch-runner").Info("dropped")
	assert.Empty(t, buf.String())

	WithComponent("batch-runner").Warn("kept")
	assert.Contains(t, buf.String(), "component=batch-runner")
}

func TestRunIDMissing(t *testing.T) {
	assert.Equal(t, "", RunID(context.Background()))
}
