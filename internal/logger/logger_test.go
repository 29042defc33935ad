package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerFallsBackToGlobal(t *testing.T) {
	entry := G(context.Background())
	assert.Equal(t, L.Logger, entry.Logger)
}

func TestWithLoggerRoundTrip(t *testing.T) {
	custom := logrus.NewEntry(logrus.New()).WithField("component", "sync")
	ctx := WithLogger(context.Background(), custom)

	got := G(ctx)
	assert.Equal(t, custom.Logger, got.Logger)
	assert.Equal(t, "sync", got.Data["component"])
}

func TestConfigureJSON(t *testing.T) {
	var buf bytes.Buffer
	prevOut := L.Logger.Out
	prevLevel := L.Logger.GetLevel()
	t.Cleanup(func() {
		SetOutput(prevOut)
		L.Logger.SetLevel(prevLevel)
		setFormat(L.Logger, "text")
	})

	SetOutput(&buf)
	require.NoError(t, Configure("info", "json"))
	L.WithField("key", "alpha").Info("reconciled")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "reconciled", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "alpha", line["key"])
}

func TestConfigureRejectsBadLevel(t *testing.T) {
	assert.Error(t, Configure("loud", "text"))
}
