package udpmirror

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/minmunui/rudp-vs-tcp/internal/config"
	"github.com/minmunui/rudp-vs-tcp/internal/reassembler"
)

// StartServer binds host:port and receives best-effort UDP transfers,
// one at a time, until ctx is cancelled.
func (m *Mirror) StartServer(ctx context.Context, host string, port int, targetDir string) error {
	log := m.logger().With(zap.String("transport", "udp"))

	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return fmt.Errorf("udpmirror: resolving %s:%d: %w", host, port, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("udpmirror: binding %s:%d: %w", host, port, err)
	}
	defer conn.Close()

	if err := conn.SetReadBuffer(config.DefaultReadBuffer); err != nil {
		log.Warn("could not raise socket receive buffer", zap.Error(err))
	}
	log.Info("mirror server listening", zap.String("host", host), zap.Int("port", port))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := m.runOneTransfer(ctx, conn, targetDir, log); err != nil {
			log.Warn("mirror transfer ended with error", zap.Error(err))
		}
	}
}

func (m *Mirror) runOneTransfer(ctx context.Context, conn *net.UDPConn, targetDir string, log *zap.Logger) error {
	var info FileInfo
	var peer *net.UDPAddr
	buf := make([]byte, config.DefaultChunkSize+config.HeaderSize+64)

	// Wait for the textual header marker; discard anything else, exactly
	// as the RDP receiver discards garbled header frames (§4.4).
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := conn.SetReadDeadline(time.Now().Add(config.ReceiverIdle)); err != nil {
			return err
		}
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return nil
			}
			return err
		}
		if !strings.HasPrefix(string(buf[:n]), fileInfoMarker) {
			continue
		}
		if err := json.Unmarshal(buf[len(fileInfoMarker):n], &info); err != nil {
			log.Debug("discarding malformed file info frame", zap.Error(err))
			continue
		}
		peer = from
		break
	}

	log.Info("mirror transfer started",
		zap.String("filename", info.Filename),
		zap.Uint32("total_chunks", info.TotalChunks),
		zap.String("peer", peer.String()))

	chunkMap := reassembler.New(info.TotalChunks)
	dataBuf := make([]byte, info.ChunkSize+12+64)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		timeout := config.UDPMirrorReceiveTimeout
		if chunkMap.Len() > 0 {
			timeout = config.UDPMirrorIdleGrace
		}
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
		n, from, err := conn.ReadFromUDP(dataBuf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				break // idle grace elapsed (or never got any data); conclude with what we have
			}
			return err
		}
		if !sameAddr(from, peer) {
			continue
		}
		if string(dataBuf[:n]) == transferEnd {
			break
		}
		frame, err := decodeMirrorFrame(dataBuf[:n])
		if err != nil {
			log.Debug("discarding malformed mirror frame", zap.Error(err))
			continue
		}
		chunkMap.Put(frame.Sequence, append([]byte(nil), frame.Payload...))
	}

	received := uint32(chunkMap.Len())
	expected := info.TotalChunks
	missing := expected - received
	var lossRate float64
	if expected > 0 {
		lossRate = float64(missing) / float64(expected) * 100
	}
	reply := ResultReply{
		Success:         missing == 0,
		ReceivedPackets: received,
		ExpectedPackets: expected,
		PacketLoss:      missing,
		LossRate:        lossRate,
	}
	if missing > 0 {
		reply.Error = fmt.Sprintf("%d of %d chunks missing", missing, expected)
	}
	body, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("udpmirror: encoding result reply: %w", err)
	}
	if _, err := conn.WriteToUDP(body, peer); err != nil {
		log.Warn("failed to send result reply", zap.Error(err))
	}

	path, err := reassembler.UniqueTargetPath(targetDir, info.Filename)
	if err != nil {
		return fmt.Errorf("udpmirror: preparing target path: %w", err)
	}
	warnings, err := chunkMap.Write(path)
	if err != nil {
		return fmt.Errorf("udpmirror: writing %s: %w", path, err)
	}
	for _, seq := range warnings {
		log.Warn("sequence absent at finalization", zap.Uint32("sequence", seq), zap.String("path", path))
	}
	log.Info("mirror transfer concluded", zap.Bool("success", reply.Success), zap.String("path", path))
	return nil
}

func sameAddr(a, b *net.UDPAddr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.IP.Equal(b.IP) && a.Port == b.Port
}
