package tcpxfer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minmunui/rudp-vs-tcp/internal/transport"
)

func TestTCPRoundTripTransfersFileIntact(t *testing.T) {
	outDir := t.TempDir()
	data := make([]byte, 200*1024)
	for i := range data {
		data[i] = byte(i % 233)
	}
	srcPath := filepath.Join(t.TempDir(), "source.bin")
	require.NoError(t, os.WriteFile(srcPath, data, 0o644))

	tr := &TCP{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	port := 45000 + (len(t.Name()) % 5000)
	go tr.StartServer(ctx, "127.0.0.1", port, outDir)
	time.Sleep(100 * time.Millisecond)

	result, err := tr.SendFile(context.Background(), srcPath, "127.0.0.1", port, 1480, 0)
	require.NoError(t, err)
	assert.Equal(t, transport.Completed, result.Outcome)

	time.Sleep(150 * time.Millisecond)
	got, err := os.ReadFile(filepath.Join(outDir, filepath.Base(srcPath)))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}
