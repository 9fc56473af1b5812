// Package quicxfer implements the QUIC transport: a thin wrapper over a
// single bidirectional QUIC stream, TLS 1.3, ALPN "filexfer". QUIC's own
// stream reliability and flow control replace RDP's NACK loop entirely,
// so a QUIC run never observes a loss event above the transport (§4.7).
package quicxfer

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/quic-go/quic-go"
	"go.uber.org/zap"

	"github.com/minmunui/rudp-vs-tcp/internal/certgen"
	"github.com/minmunui/rudp-vs-tcp/internal/chunker"
	"github.com/minmunui/rudp-vs-tcp/internal/config"
	"github.com/minmunui/rudp-vs-tcp/internal/transport"
	"github.com/minmunui/rudp-vs-tcp/internal/wire"
)

// ALPN is the application-layer protocol identifier this harness
// negotiates over QUIC's TLS handshake.
const ALPN = "filexfer"

// QUIC implements transport.Transport over a quic-go connection.
type QUIC struct {
	Logger *zap.Logger
}

var _ transport.Transport = (*QUIC)(nil)

func (q *QUIC) Name() string { return "quic" }

func (q *QUIC) logger() *zap.Logger {
	if q.Logger != nil {
		return q.Logger
	}
	return zap.NewNop()
}

// SendFile dials a QUIC connection against the throwaway self-signed
// certificate the server generates at startup, opens one bidirectional
// stream, writes the transfer header followed by the chunked payload,
// and half-closes.
func (q *QUIC) SendFile(ctx context.Context, filename, host string, port int, bufferSize int, sendInterval time.Duration) (transport.Result, error) {
	log := q.logger().With(zap.String("transport", "quic"), zap.String("file", filename))
	start := time.Now()

	chunkSize := bufferSize - config.HeaderSize
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	ch, err := chunker.Open(filename, chunkSize)
	if err != nil {
		return transport.Result{}, fmt.Errorf("quicxfer: opening %s: %w", filename, err)
	}
	defer ch.Close()

	tlsConf := certgen.ClientTLSConfig(ALPN)
	conn, err := quic.DialAddr(ctx, fmt.Sprintf("%s:%d", host, port), tlsConf, nil)
	if err != nil {
		return transport.Result{}, fmt.Errorf("quicxfer: dialing %s:%d: %w", host, port, err)
	}
	defer conn.CloseWithError(0, "")

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return transport.Result{}, fmt.Errorf("quicxfer: opening stream: %w", err)
	}
	defer stream.Close()

	header := wire.EncodeHeader(wire.Header{
		BufferSize:  uint32(bufferSize),
		TotalChunks: ch.TotalChunks(),
		Filename:    baseName(filename),
	})
	var bytesSent int64
	n, err := stream.Write(header)
	if err != nil {
		return transport.Result{}, fmt.Errorf("quicxfer: writing header: %w", err)
	}
	bytesSent += int64(n)

	for {
		c, err := ch.Next()
		if err != nil {
			break
		}
		frame := wire.EncodeData(wire.DataFrame{Sequence: c.Sequence, Payload: c.Payload})
		n, err := stream.Write(frame)
		if err != nil {
			return transport.Result{}, fmt.Errorf("quicxfer: writing chunk %d: %w", c.Sequence, err)
		}
		bytesSent += int64(n)
		if sendInterval > 0 {
			time.Sleep(sendInterval)
		}
	}

	log.Info("transfer finished", zap.Int64("bytes_sent", bytesSent), zap.Duration("duration", time.Since(start)))
	return transport.Result{
		Transport:  q.Name(),
		BytesSent:  bytesSent,
		Duration:   time.Since(start),
		LossEvents: [][]int32{{}},
		Outcome:    transport.Completed,
	}, nil
}

// StartServer accepts QUIC connections on host:port using a throwaway
// self-signed certificate, reading one transfer per stream.
func (q *QUIC) StartServer(ctx context.Context, host string, port int, targetDir string) error {
	log := q.logger().With(zap.String("transport", "quic"))

	tlsConf, err := certgen.ServerTLSConfig(ALPN, host)
	if err != nil {
		return fmt.Errorf("quicxfer: generating server certificate: %w", err)
	}

	udpAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return fmt.Errorf("quicxfer: resolving %s:%d: %w", host, port, err)
	}
	udpConn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("quicxfer: binding %s:%d: %w", host, port, err)
	}
	defer udpConn.Close()

	listener, err := quic.Listen(udpConn, tlsConf, nil)
	if err != nil {
		return fmt.Errorf("quicxfer: creating QUIC listener: %w", err)
	}
	defer listener.Close()

	log.Info("QUIC server listening", zap.String("host", host), zap.Int("port", port))

	for {
		conn, err := listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("accept failed", zap.Error(err))
			continue
		}
		go q.handleConnection(ctx, conn, targetDir, log)
	}
}

func (q *QUIC) handleConnection(ctx context.Context, conn quic.Connection, targetDir string, log *zap.Logger) {
	defer conn.CloseWithError(0, "")

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		log.Warn("accept stream failed", zap.Error(err))
		return
	}
	defer stream.Close()

	if err := q.receiveStream(stream, targetDir, log); err != nil {
		log.Warn("stream transfer failed", zap.Error(err))
	}
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
