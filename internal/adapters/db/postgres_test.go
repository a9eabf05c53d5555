package db

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPoolConfig(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("session parameters", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LockTimeout = 1500 * time.Millisecond
		cfg.MaxConnections = 7

		pc, err := buildPoolConfig(cfg, logger)
		require.NoError(t, err)

		assert.Equal(t, int32(7), pc.MaxConns)
		assert.Equal(t, "1500ms", pc.ConnConfig.RuntimeParams["lock_timeout"])
		assert.Equal(t, "pharmabook", pc.ConnConfig.RuntimeParams["application_name"])
		assert.Nil(t, pc.ConnConfig.Tracer)
	})

	t.Run("zero lock timeout keeps server default", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LockTimeout = 0
		cfg.EnableQueryLogging = true

		pc, err := buildPoolConfig(cfg, logger)
		require.NoError(t, err)

		_, set := pc.ConnConfig.RuntimeParams["lock_timeout"]
		assert.False(t, set)
		assert.NotNil(t, pc.ConnConfig.Tracer)
	})
}

func TestPgxLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := newPgxLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	l.Log(context.Background(), tracelog.LogLevelError, "Query", map[string]interface{}{"sql": "SELECT 1"})
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"component":"pgx"`)
	assert.Contains(t, buf.String(), `"sql":"SELECT 1"`)

	buf.Reset()
	l.Log(context.Background(), tracelog.LogLevelTrace, "Prepare", nil)
	assert.Contains(t, buf.String(), `"level":"DEBUG"`)
}
