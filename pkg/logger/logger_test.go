package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/lmittmann/tint"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestTextHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(tint.NewHandler(&buf, &tint.Options{NoColor: true, Level: slog.LevelDebug}))
	log.With("component", "multicall").Debug("chunk dispatched", "size", 2)

	out := buf.String()
	assert.Contains(t, out, "chunk dispatched")
	assert.Contains(t, out, "component=multicall")
	assert.Contains(t, out, "size=2")
}

func TestBuildAuditLoggerRequiresPath(t *testing.T) {
	_, err := buildAuditLogger(AuditConfig{Enabled: true})
	assert.Error(t, err)
}

func TestNamedNeverNil(t *testing.T) {
	assert.NotNil(t, Named("test"))
	assert.NotNil(t, Audit())
}
