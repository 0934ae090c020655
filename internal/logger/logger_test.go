package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Output: &buf})

	log.Debug().Str("op", "register_act").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "acteledger", line["service"])
	assert.Equal(t, "register_act", line["op"])
	assert.Equal(t, "hello", line["message"])
	assert.Contains(t, line, "time")
}

func TestNew_LevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("kept")
	assert.NotZero(t, buf.Len())
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	log := New(Config{Level: "chatty"})
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNew_Pretty(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Pretty: true, Output: &buf})

	log.Info().Msg("console line")

	// Console output is human text, not JSON.
	out := buf.String()
	assert.Contains(t, out, "console line")
	assert.False(t, json.Valid(buf.Bytes()))
}
