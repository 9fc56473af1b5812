// Package rdp implements the custom reliable datagram protocol: a
// selective-retransmission, sender-driven reliability scheme layered over
// unreliable UDP datagrams. This is the core of the benchmarking harness;
// the other transports (UDP mirror, TCP, QUIC) are thinner wrappers.
package rdp

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/minmunui/rudp-vs-tcp/internal/chunker"
	"github.com/minmunui/rudp-vs-tcp/internal/config"
	"github.com/minmunui/rudp-vs-tcp/internal/netsim"
	"github.com/minmunui/rudp-vs-tcp/internal/transport"
	"github.com/minmunui/rudp-vs-tcp/internal/wire"
)

// senderState names the Sender's position in the BURSTING /
// AWAITING_NACK / RETRANSMITTING cycle (§4.3).
type senderState int

const (
	stateBursting senderState = iota
	stateAwaitingNack
	stateRetransmitting
	stateDone
	stateFailed
)

// RDP implements transport.Transport for the custom NACK-based protocol.
type RDP struct {
	Logger *zap.Logger

	// Drop, if set, injects synthetic first-attempt loss on the sender
	// side for benchmarking under controlled conditions (§1 ambient
	// stack; not part of the core protocol).
	Drop *netsim.DropPolicy
}

var _ transport.Transport = (*RDP)(nil)

func (r *RDP) Name() string { return "rdp" }

func (r *RDP) logger() *zap.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return zap.NewNop()
}

// SendFile drives the Sender state machine to completion or failure. It
// encodes every chunk once into a packet dictionary (the file is never
// re-read), bursts them, then alternates AWAITING_NACK/RETRANSMITTING
// against the pivot sequence until the Receiver reports an empty NACK or
// five consecutive timeouts elapse (§4.3).
func (r *RDP) SendFile(ctx context.Context, filename, host string, port int, bufferSize int, sendInterval time.Duration) (transport.Result, error) {
	log := r.logger().With(zap.String("transport", "rdp"), zap.String("file", filename))
	start := time.Now()

	ch, err := chunker.Open(filename, bufferSizeToChunkSize(bufferSize))
	if err != nil {
		return transport.Result{}, fmt.Errorf("rdp: opening %s: %w", filename, err)
	}
	defer ch.Close()

	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return transport.Result{}, fmt.Errorf("rdp: resolving %s:%d: %w", host, port, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return transport.Result{}, fmt.Errorf("rdp: dialing %s:%d: %w", host, port, err)
	}
	defer conn.Close()

	totalChunks := ch.TotalChunks()
	header := wire.EncodeHeader(wire.Header{
		BufferSize:  uint32(bufferSize),
		TotalChunks: totalChunks,
		Filename:    baseName(filename),
	})
	if _, err := conn.Write(header); err != nil {
		return transport.Result{}, fmt.Errorf("rdp: sending header: %w", err)
	}

	packets := make(map[uint32][]byte, totalChunks)
	var bytesSent int64
	var lossEvents [][]int32
	pivot := int32(totalChunks) - 1
	var toRetransmit []int32

	state := stateBursting
	for state != stateDone && state != stateFailed {
		select {
		case <-ctx.Done():
			return transport.Result{}, ctx.Err()
		default:
		}

		switch state {
		case stateBursting:
			for {
				c, err := ch.Next()
				if err != nil {
					break
				}
				frame := wire.EncodeData(wire.DataFrame{Sequence: c.Sequence, Payload: c.Payload})
				packets[c.Sequence] = frame
				if r.Drop.ShouldDrop(c.Sequence) {
					log.Debug("synthetic drop", zap.Uint32("sequence", c.Sequence))
				} else {
					if _, err := conn.Write(frame); err != nil {
						return transport.Result{}, fmt.Errorf("rdp: writing data frame %d: %w", c.Sequence, err)
					}
					bytesSent += int64(len(frame))
				}
				if sendInterval > 0 {
					time.Sleep(sendInterval)
				}
			}
			log.Debug("burst complete", zap.Uint32("total_chunks", totalChunks))
			state = stateAwaitingNack

		case stateAwaitingNack:
			missing, timedOut, err := awaitNack(conn, config.NackWaitTimeout)
			if err != nil {
				return transport.Result{}, fmt.Errorf("rdp: awaiting NACK: %w", err)
			}
			if timedOut {
				timeouts := 1
				for timedOut && timeouts <= config.SenderMaxRetries {
					log.Warn("NACK wait timed out, retransmitting pivot",
						zap.Int32("pivot", pivot), zap.Int("attempt", timeouts))
					if pkt, ok := packets[uint32(pivot)]; pivot >= 0 && ok {
						if _, err := conn.Write(pkt); err != nil {
							return transport.Result{}, fmt.Errorf("rdp: retransmitting pivot: %w", err)
						}
						bytesSent += int64(len(pkt))
					}
					missing, timedOut, err = awaitNack(conn, config.NackWaitTimeout)
					if err != nil {
						return transport.Result{}, fmt.Errorf("rdp: awaiting NACK: %w", err)
					}
					if timedOut {
						timeouts++
					}
				}
				if timedOut {
					log.Error("sender failed after max NACK timeouts", zap.Int("timeouts", timeouts))
					lossEvents = append(lossEvents, []int32{-1})
					state = stateFailed
					break
				}
			}
			if len(missing) == 0 {
				lossEvents = append(lossEvents, []int32{})
				state = stateDone
				break
			}
			lossEvents = append(lossEvents, missing)
			pivot = maxSeq(missing)
			toRetransmit = missing
			log.Info("NACK round", zap.Int("missing_count", len(missing)), zap.Int32("new_pivot", pivot))
			state = stateRetransmitting

		case stateRetransmitting:
			for _, seq := range toRetransmit {
				if seq < 0 {
					continue
				}
				pkt, ok := packets[uint32(seq)]
				if !ok {
					continue
				}
				if _, err := conn.Write(pkt); err != nil {
					return transport.Result{}, fmt.Errorf("rdp: retransmitting seq %d: %w", seq, err)
				}
				bytesSent += int64(len(pkt))
			}
			state = stateAwaitingNack
		}
	}

	outcome := transport.Completed
	if state == stateFailed {
		outcome = transport.TimedOut
	}
	log.Info("transfer finished", zap.String("outcome", string(outcome)),
		zap.Int64("bytes_sent", bytesSent), zap.Duration("duration", time.Since(start)))
	return transport.Result{
		Transport:  r.Name(),
		BytesSent:  bytesSent,
		Duration:   time.Since(start),
		LossEvents: lossEvents,
		Outcome:    outcome,
	}, nil
}

// awaitNack reads a single NACK frame within timeout. timedOut is true
// if no frame arrived; err is non-nil only for an unexpected I/O or
// decode failure.
func awaitNack(conn *net.UDPConn, timeout time.Duration) (missing []int32, timedOut bool, err error) {
	buf := make([]byte, config.NackRecvBufferSize)
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, false, err
	}
	n, err := conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, true, nil
		}
		return nil, false, err
	}
	missing, err = wire.DecodeNack(buf[:n])
	if err != nil {
		return nil, false, err
	}
	return missing, false, nil
}

func maxSeq(seqs []int32) int32 {
	max := seqs[0]
	for _, s := range seqs[1:] {
		if s > max {
			max = s
		}
	}
	return max
}

func bufferSizeToChunkSize(bufferSize int) int {
	if bufferSize <= config.HeaderSize {
		return config.DefaultChunkSize
	}
	return bufferSize - config.HeaderSize
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
