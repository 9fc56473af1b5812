package rdp

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/minmunui/rudp-vs-tcp/internal/config"
	"github.com/minmunui/rudp-vs-tcp/internal/reassembler"
	"github.com/minmunui/rudp-vs-tcp/internal/wire"
)

// receiverState names the Receiver's position in the LISTENING /
// HEADERED / COLLECTING / FINALIZING / ABORTED cycle (§4.4).
type receiverState int

const (
	stateListening receiverState = iota
	stateHeadered
	stateCollecting
	stateFinalizing
	stateAborted
)

// StartServer binds host:port and processes RDP transfers one at a time
// until ctx is cancelled. Per §5, each accepted header starts a fresh
// chunk map; there is no shared state across transfers.
func (r *RDP) StartServer(ctx context.Context, host string, port int, targetDir string) error {
	log := r.logger().With(zap.String("transport", "rdp"))

	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return fmt.Errorf("rdp: resolving %s:%d: %w", host, port, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("rdp: binding %s:%d: %w", host, port, err)
	}
	defer conn.Close()

	if err := conn.SetReadBuffer(config.DefaultReadBuffer); err != nil {
		log.Warn("could not raise socket receive buffer", zap.Error(err))
	}

	log.Info("server listening", zap.String("host", host), zap.Int("port", port), zap.String("target_dir", targetDir))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := r.runOneTransfer(ctx, conn, targetDir, log); err != nil {
			log.Warn("transfer ended with error", zap.Error(err))
		}
	}
}

// runOneTransfer drives the Receiver through LISTENING→...→FINALIZING or
// ABORTED for exactly one incoming transfer, then returns control to the
// caller's accept loop.
func (r *RDP) runOneTransfer(ctx context.Context, conn *net.UDPConn, targetDir string, log *zap.Logger) error {
	state := stateListening
	var header wire.Header
	var peer *net.UDPAddr
	var chunkMap *reassembler.Map
	pivot := int32(-1)

	buf := make([]byte, config.TransferHeaderWire+config.DefaultChunkSize)

	for state != stateFinalizing && state != stateAborted {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch state {
		case stateListening:
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
			h, err := wire.DecodeHeader(buf[:n])
			if err != nil {
				// Garbled or stray traffic on the server port between
				// transfers: discard and keep listening (§4.4).
				log.Debug("discarding non-header frame while listening", zap.Error(err))
				continue
			}
			header = h
			peer = from
			chunkMap = reassembler.New(header.TotalChunks)
			pivot = int32(header.TotalChunks) - 1
			log.Info("transfer header received",
				zap.String("filename", header.Filename),
				zap.Uint32("total_chunks", header.TotalChunks),
				zap.String("peer", peer.String()))
			state = stateCollecting

		case stateCollecting:
			if err := conn.SetReadDeadline(time.Now().Add(config.ReceiverIdle)); err != nil {
				return err
			}
			n, from, err := conn.ReadFromUDP(buf)
			if err != nil {
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					log.Warn("receiver idle timeout, aborting transfer", zap.String("filename", header.Filename))
					state = stateAborted
					break
				}
				return err
			}
			// A single bound peer address is latched at header time
			// (§9 open question ii); traffic from any other source is
			// ignored so a second concurrent sender cannot corrupt the
			// in-flight chunk map.
			if !sameAddr(from, peer) {
				continue
			}
			frame, err := wire.DecodeData(buf[:n])
			if err != nil {
				return fmt.Errorf("data frame too short to parse: %w", err)
			}
			chunkMap.Put(frame.Sequence, append([]byte(nil), frame.Payload...))

			if int32(frame.Sequence) != pivot {
				continue
			}
			missing := chunkMap.Missing()
			if len(missing) == 0 {
				if _, err := conn.WriteToUDP(wire.EncodeNack(nil), peer); err != nil {
					log.Warn("failed to send completion NACK", zap.Error(err))
				}
				state = stateFinalizing
				break
			}
			if _, err := conn.WriteToUDP(wire.EncodeNack(missing), peer); err != nil {
				// NACK sendto failure is best-effort: log and continue
				// (§4.8), remaining in COLLECTING.
				log.Warn("failed to send NACK", zap.Error(err))
			}
			pivot = reassembler.MaxSequence(missing)
		}
	}

	if state == stateAborted {
		return fmt.Errorf("rdp: transfer of %q aborted: receiver idle", header.Filename)
	}
	return r.finalize(targetDir, header, chunkMap, log)
}

func (r *RDP) finalize(targetDir string, header wire.Header, chunkMap *reassembler.Map, log *zap.Logger) error {
	path, err := reassembler.UniqueTargetPath(targetDir, header.Filename)
	if err != nil {
		return fmt.Errorf("rdp: preparing target path: %w", err)
	}
	warnings, err := chunkMap.Write(path)
	if err != nil {
		return fmt.Errorf("rdp: writing %s: %w", path, err)
	}
	for _, seq := range warnings {
		log.Warn("sequence absent at finalization, wrote zero-length gap",
			zap.Uint32("sequence", seq), zap.String("path", path))
	}
	log.Info("transfer complete", zap.String("path", filepath.Clean(path)), zap.Int("chunks", chunkMap.Len()))
	return nil
}

func sameAddr(a, b *net.UDPAddr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.IP.Equal(b.IP) && a.Port == b.Port
}
