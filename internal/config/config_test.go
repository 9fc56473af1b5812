package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateHost(t *testing.T) {
	assert.NoError(t, ValidateHost("127.0.0.1"))
	assert.NoError(t, ValidateHost("example.com"))
	assert.Error(t, ValidateHost(""))
	assert.Error(t, ValidateHost("bad host!"))
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, ValidatePort(19000))
	assert.Error(t, ValidatePort(0))
	assert.Error(t, ValidatePort(70000))
}

func TestValidateFilePathRejectsTraversal(t *testing.T) {
	assert.NoError(t, ValidateFilePath("report.pdf"))
	assert.Error(t, ValidateFilePath(""))
	assert.Error(t, ValidateFilePath("../secret"))
}

func TestValidateDropRate(t *testing.T) {
	assert.NoError(t, ValidateDropRate(0))
	assert.NoError(t, ValidateDropRate(1))
	assert.Error(t, ValidateDropRate(-0.1))
	assert.Error(t, ValidateDropRate(1.1))
}

func TestValidateAccumulatesAllErrors(t *testing.T) {
	p := RunProfile{Host: "", Port: -1, FilePath: "", DropRate: 2, BufferSize: 0, Retries: -1}
	errs := Validate(p)
	assert.Len(t, errs, 6)
}

func TestChunkSizeFallsBackToDefault(t *testing.T) {
	p := RunProfile{BufferSize: 4}
	assert.Equal(t, DefaultChunkSize, p.ChunkSize())
}

func TestChunkSizeSubtractsHeader(t *testing.T) {
	p := RunProfile{BufferSize: 1480}
	assert.Equal(t, 1480-HeaderSize, p.ChunkSize())
}

func TestParseTarget(t *testing.T) {
	host, port, err := ParseTarget("127.0.0.1:19000")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	assert.Equal(t, 19000, port)

	_, _, err = ParseTarget("not-a-target")
	assert.Error(t, err)
}

func TestSaveAndLoadProfileRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := DefaultRunProfile()
	p.Host = "192.168.1.5"
	p.Port = 22222

	require.NoError(t, SaveProfile("test-client", p))
	loaded, err := LoadProfile("test-client")
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}

func TestLoadProfileMissingFallsBackToDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	loaded, err := LoadProfile("does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, DefaultRunProfile(), loaded)
}
