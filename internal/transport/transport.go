// Package transport declares the common interface every transfer strategy
// (RDP, UDP mirror, TCP, QUIC) implements, and the tagged result type each
// one returns, so the CLI driver and GUI can select a strategy by name.
package transport

import (
	"context"
	"time"
)

// Outcome tags how a SendFile call ended. It replaces the legacy
// sentinel-in-loss-list encoding (§9 design note) for anything that
// inspects a Result programmatically; the sentinel itself is still
// preserved inside LossEvents for log consumers that expect it.
type Outcome string

const (
	Completed Outcome = "completed"
	TimedOut  Outcome = "timed_out"
)

// Result is what a SendFile call returns once a transfer ends, one way
// or another.
type Result struct {
	Transport  string
	BytesSent  int64
	Duration   time.Duration
	LossEvents [][]int32
	Outcome    Outcome
}

// Transport is the common surface the harness drives every strategy
// through. A Transport's SendFile and StartServer are safe to call
// concurrently for distinct transfers, but a single Transport value is
// not required to support concurrent transfers of the same role.
type Transport interface {
	// Name identifies the transport for logging and result tagging.
	Name() string

	// SendFile transfers filename to host:port, pacing data frames (where
	// the transport has a pacing knob) by sendInterval, using bufferSize
	// as the wire buffer/chunk size. It blocks until the transfer
	// completes, fails, or ctx is cancelled.
	SendFile(ctx context.Context, filename, host string, port int, bufferSize int, sendInterval time.Duration) (Result, error)

	// StartServer binds host:port and receives transfers into targetDir
	// until ctx is cancelled.
	StartServer(ctx context.Context, host string, port int, targetDir string) error
}
