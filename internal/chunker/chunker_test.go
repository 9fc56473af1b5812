package chunker

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, contents []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.bin")
	require.NoError(t, os.WriteFile(path, contents, 0o644))
	return path
}

func TestTotalChunksCeilDivision(t *testing.T) {
	path := writeTempFile(t, make([]byte, 25))
	c, err := Open(path, 10)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, uint32(3), c.TotalChunks())
}

func TestNextProducesChunksInOrder(t *testing.T) {
	data := []byte("abcdefghijklmnopqrstuvwxyz")
	path := writeTempFile(t, data)
	c, err := Open(path, 10)
	require.NoError(t, err)
	defer c.Close()

	var got []byte
	var seqs []uint32
	for {
		chunk, err := c.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		seqs = append(seqs, chunk.Sequence)
		got = append(got, chunk.Payload...)
	}
	assert.Equal(t, []uint32{0, 1, 2}, seqs)
	assert.Equal(t, data, got)
}

func TestLastChunkShorter(t *testing.T) {
	path := writeTempFile(t, make([]byte, 5))
	c, err := Open(path, 10)
	require.NoError(t, err)
	defer c.Close()

	chunk, err := c.Next()
	require.NoError(t, err)
	assert.Len(t, chunk.Payload, 5)

	_, err = c.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSeqReadsArbitraryChunkWithoutDisturbingCursor(t *testing.T) {
	data := []byte("0123456789ABCDEFGHIJ")
	path := writeTempFile(t, data)
	c, err := Open(path, 10)
	require.NoError(t, err)
	defer c.Close()

	chunk, err := c.Seq(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABCDEFGHIJ"), chunk.Payload)

	first, err := c.Next()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), first.Sequence)
	assert.Equal(t, []byte("0123456789"), first.Payload)
}

func TestSeqOutOfRange(t *testing.T) {
	path := writeTempFile(t, make([]byte, 5))
	c, err := Open(path, 10)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Seq(5)
	assert.Error(t, err)
}

func TestOpenRejectsNonPositiveChunkSize(t *testing.T) {
	path := writeTempFile(t, []byte("x"))
	_, err := Open(path, 0)
	assert.Error(t, err)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.bin"), 10)
	assert.Error(t, err)
}
