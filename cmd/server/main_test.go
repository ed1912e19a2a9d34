package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ReturnsConfigError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flightwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o644))
	t.Setenv("FLIGHTWATCH_CONFIG", path)

	err := run(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}
