package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/race/highway/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_MissingConfigFile(t *testing.T) {
	err := run(context.Background(), filepath.Join(t.TempDir(), "absent.json"), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading configuration")
}

func TestRun_InvalidTuning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "highway.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tuning": {"tickRate": 0}}`), 0644))

	err := run(context.Background(), path, io.Discard)
	assert.ErrorIs(t, err, config.ErrInvalidTickRate)
}

func TestRun_StopsWhenContextDone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "highway.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": {"host": "127.0.0.1", "port": 0}}`), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, run(ctx, path, io.Discard))
}
