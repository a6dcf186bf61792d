package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(&buf, "debug", "json")
	require.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("user_id", "u1").Debug("hello")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "hello", entry["msg"])
	require.Equal(t, "u1", entry["user_id"])
}

func TestSetupUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(&buf, "chatty", "text")
	require.Equal(t, logrus.InfoLevel, logger.GetLevel())

	logger.Debug("hidden")
	require.Empty(t, buf.String())
	logger.Info("shown")
	require.Contains(t, buf.String(), "shown")
}
