package udpmirror

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minmunui/rudp-vs-tcp/internal/netsim"
)

func writeSourceFile(t *testing.T, size int) string {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 241)
	}
	path := filepath.Join(t.TempDir(), "mirror.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestMirrorFrameRoundTrip(t *testing.T) {
	f := mirrorFrame{Sequence: 3, TotalChunks: 10, Payload: []byte("hello")}
	got, err := decodeMirrorFrame(encodeMirrorFrame(f))
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestMirrorTransferLossless(t *testing.T) {
	outDir := t.TempDir()
	srcPath := writeSourceFile(t, 8192)
	original, err := os.ReadFile(srcPath)
	require.NoError(t, err)

	receiver := &Mirror{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	port := 30000 + (len(t.Name()) % 5000)
	go receiver.StartServer(ctx, "127.0.0.1", port, outDir)
	time.Sleep(50 * time.Millisecond)

	sender := &Mirror{}
	result, err := sender.SendFile(context.Background(), srcPath, "127.0.0.1", port, 512, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]int32{{}}, result.LossEvents)

	time.Sleep(150 * time.Millisecond)
	got, err := os.ReadFile(filepath.Join(outDir, filepath.Base(srcPath)))
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestMirrorTransferWithLossReportsNonZeroRate(t *testing.T) {
	outDir := t.TempDir()
	srcPath := writeSourceFile(t, 64*1024)

	receiver := &Mirror{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	port := 35000 + (len(t.Name()) % 5000)
	go receiver.StartServer(ctx, "127.0.0.1", port, outDir)
	time.Sleep(50 * time.Millisecond)

	sender := &Mirror{Drop: netsim.NewDropPolicy(0.2, 1)}
	result, err := sender.SendFile(context.Background(), srcPath, "127.0.0.1", port, 512, 0)
	require.NoError(t, err)
	require.Len(t, result.LossEvents, 1)
	assert.NotEmpty(t, result.LossEvents[0])
}
