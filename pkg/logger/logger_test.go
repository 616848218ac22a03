package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerCarriesScopedFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "debug", Format: "json"}, &buf)

	log.WithComponent("ingestion").WithUserID("u-1").WithChannel("sms").Info().Msg("stored")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "ingestion", entry["component"])
	require.Equal(t, "u-1", entry["user_id"])
	require.Equal(t, "sms", entry["channel"])
	require.Equal(t, "stored", entry["message"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	require.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	require.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}

func TestLevelFiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(Config{Level: "error", Format: "json"}, &buf)

	log.Info().Msg("dropped")
	require.Zero(t, buf.Len())
}
