package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewFileCreatesLogDirAndWritesEntries(t *testing.T) {
	dir := t.TempDir()
	log, err := NewFile(dir, "client", zapcore.DebugLevel)
	require.NoError(t, err)
	log.Info("hello")
	require.NoError(t, log.Sync())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "client_")
}

func TestInitPopulatesAllThreeLoggers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	assert.NotNil(t, Default)
	assert.NotNil(t, Client)
	assert.NotNil(t, Server)
	Close()
}

func TestNewFileCreatesNestedLogDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	_, err := NewFile(dir, "server", zapcore.DebugLevel)
	require.NoError(t, err) // MkdirAll creates the nested path successfully
}
