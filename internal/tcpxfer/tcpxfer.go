// Package tcpxfer implements the TCP transport: a thin net.Dial/net.Listen
// wrapper reusing the chunker on the sender side and a buffered
// length-prefixed read loop on the receiver side (TCP already guarantees
// order and delivery, so there is no NACK and no pivot; the reassembler's
// chunk map only collects the chunks and writes the file).
// TCP's own reliability makes packet loss invisible at the application
// layer, so this package additionally samples the kernel's TCP_INFO
// socket option at connection close (§4.6, see tcpinfo.go).
package tcpxfer

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/minmunui/rudp-vs-tcp/internal/chunker"
	"github.com/minmunui/rudp-vs-tcp/internal/config"
	"github.com/minmunui/rudp-vs-tcp/internal/reassembler"
	"github.com/minmunui/rudp-vs-tcp/internal/transport"
	"github.com/minmunui/rudp-vs-tcp/internal/wire"
)

// TCP implements transport.Transport over a plain net.Conn stream.
type TCP struct {
	Logger *zap.Logger
}

var _ transport.Transport = (*TCP)(nil)

func (t *TCP) Name() string { return "tcp" }

func (t *TCP) logger() *zap.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return zap.NewNop()
}

// SendFile dials host:port, writes the transfer header, then streams
// every chunk using the RDP frame codec's data-frame layout for
// consistency of on-wire shape (sequence + length prefix), even though
// the stream is read with a buffered reader rather than recvfrom-per-
// datagram (§4.6).
func (t *TCP) SendFile(ctx context.Context, filename, host string, port int, bufferSize int, sendInterval time.Duration) (transport.Result, error) {
	log := t.logger().With(zap.String("transport", "tcp"), zap.String("file", filename))
	start := time.Now()

	chunkSize := bufferSize - config.HeaderSize
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	ch, err := chunker.Open(filename, chunkSize)
	if err != nil {
		return transport.Result{}, fmt.Errorf("tcpxfer: opening %s: %w", filename, err)
	}
	defer ch.Close()

	dialer := net.Dialer{Timeout: config.NackWaitTimeout * time.Duration(config.SenderMaxRetries)}
	rawConn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return transport.Result{}, fmt.Errorf("tcpxfer: dialing %s:%d: %w", host, port, err)
	}
	conn := rawConn.(*net.TCPConn)
	defer func() {
		if stats, err := sampleTCPInfo(conn); err == nil {
			log.Info("kernel TCP_INFO at close",
				zap.Uint8("state", stats.State),
				zap.Uint32("rtt_us", stats.RTT),
				zap.Uint32("snd_cwnd", stats.SndCwnd),
				zap.Uint32("total_retrans", stats.TotalRetrans))
		} else {
			log.Debug("TCP_INFO unavailable", zap.Error(err))
		}
		conn.Close()
	}()

	w := bufio.NewWriter(conn)
	header := wire.EncodeHeader(wire.Header{
		BufferSize:  uint32(bufferSize),
		TotalChunks: ch.TotalChunks(),
		Filename:    baseName(filename),
	})
	var bytesSent int64
	n, err := w.Write(header)
	if err != nil {
		return transport.Result{}, fmt.Errorf("tcpxfer: writing header: %w", err)
	}
	bytesSent += int64(n)

	for {
		c, err := ch.Next()
		if err != nil {
			break
		}
		frame := wire.EncodeData(wire.DataFrame{Sequence: c.Sequence, Payload: c.Payload})
		n, err := w.Write(frame)
		if err != nil {
			return transport.Result{}, fmt.Errorf("tcpxfer: writing chunk %d: %w", c.Sequence, err)
		}
		bytesSent += int64(n)
		if sendInterval > 0 {
			time.Sleep(sendInterval)
		}
	}
	if err := w.Flush(); err != nil {
		return transport.Result{}, fmt.Errorf("tcpxfer: flushing stream: %w", err)
	}

	log.Info("transfer finished", zap.Int64("bytes_sent", bytesSent), zap.Duration("duration", time.Since(start)))
	return transport.Result{
		Transport:  t.Name(),
		BytesSent:  bytesSent,
		Duration:   time.Since(start),
		LossEvents: [][]int32{{}},
		Outcome:    transport.Completed,
	}, nil
}

// StartServer binds host:port and accepts one TCP connection per
// transfer, reading its header and then its chunk stream to EOF.
func (t *TCP) StartServer(ctx context.Context, host string, port int, targetDir string) error {
	log := t.logger().With(zap.String("transport", "tcp"))

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return fmt.Errorf("tcpxfer: binding %s:%d: %w", host, port, err)
	}
	defer ln.Close()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	log.Info("TCP server listening", zap.String("host", host), zap.Int("port", port))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("accept failed", zap.Error(err))
			continue
		}
		go t.handleConnection(conn.(*net.TCPConn), targetDir, log)
	}
}

func (t *TCP) handleConnection(conn *net.TCPConn, targetDir string, log *zap.Logger) {
	defer func() {
		if stats, err := sampleTCPInfo(conn); err == nil {
			log.Info("kernel TCP_INFO at close",
				zap.Uint8("state", stats.State),
				zap.Uint32("rtt_us", stats.RTT),
				zap.Uint32("total_retrans", stats.TotalRetrans))
		}
		conn.Close()
	}()

	if err := t.receiveStream(conn, targetDir, log); err != nil {
		log.Warn("TCP transfer failed", zap.Error(err))
	}
}

func (t *TCP) receiveStream(conn net.Conn, targetDir string, log *zap.Logger) error {
	r := bufio.NewReader(conn)
	headerBuf := make([]byte, config.TransferHeaderRead)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return fmt.Errorf("tcpxfer: reading header: %w", err)
	}
	header, err := wire.DecodeHeader(headerBuf)
	if err != nil {
		return fmt.Errorf("tcpxfer: decoding header: %w", err)
	}
	log.Info("transfer started", zap.String("filename", header.Filename), zap.Uint32("total_chunks", header.TotalChunks))

	chunkMap := reassembler.New(header.TotalChunks)
	frameHeader := make([]byte, config.HeaderSize)
	for {
		if _, err := io.ReadFull(r, frameHeader); err != nil {
			break // clean EOF once the sender half-closes the stream
		}
		seq := binary.BigEndian.Uint32(frameHeader[0:4])
		length := binary.BigEndian.Uint32(frameHeader[4:8])
		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return fmt.Errorf("tcpxfer: reading chunk %d payload: %w", seq, err)
		}
		chunkMap.Put(seq, payload)
	}

	path, err := reassembler.UniqueTargetPath(targetDir, header.Filename)
	if err != nil {
		return fmt.Errorf("tcpxfer: preparing target path: %w", err)
	}
	warnings, err := chunkMap.Write(path)
	if err != nil {
		return fmt.Errorf("tcpxfer: writing %s: %w", path, err)
	}
	for _, seq := range warnings {
		log.Warn("sequence absent at finalization", zap.Uint32("sequence", seq), zap.String("path", path))
	}
	log.Info("transfer complete", zap.String("path", path), zap.Int("chunks", chunkMap.Len()))
	return nil
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
