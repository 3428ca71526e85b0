package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"quote-observer/src/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("verbose"))
}

func TestLoggerWritesComponentField(t *testing.T) {
	Configure(&models.MConfig{LogLevel: "WARNING", LogFormat: "json"})
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		Configure(&models.MConfig{LogLevel: "INFO"})
		SetOutput(os.Stdout)
	})

	log := NewLogger("Poller")
	assert.Equal(t, "Poller", log.Name())

	log.Info("ignored below level")
	assert.Zero(t, buf.Len())

	log.Warning("cycle took %dms", 42)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Poller", line["component"])
	assert.Equal(t, "cycle took 42ms", line["msg"])
	assert.Equal(t, "warning", line["level"])
}
