package udpmirror

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/minmunui/rudp-vs-tcp/internal/chunker"
	"github.com/minmunui/rudp-vs-tcp/internal/config"
	"github.com/minmunui/rudp-vs-tcp/internal/transport"
)

// SendFile sends filename over a best-effort UDP channel: a textual
// FILE_INFO header, every chunk framed with its own total_chunks field,
// and a TRANSFER_END sentinel, then waits up to UDPMirrorReplyWait for
// the Receiver's JSON result reply (§4.5).
func (m *Mirror) SendFile(ctx context.Context, filename, host string, port int, bufferSize int, sendInterval time.Duration) (transport.Result, error) {
	log := m.logger().With(zap.String("transport", "udp"), zap.String("file", filename))
	start := time.Now()

	info, err := os.Stat(filename)
	if err != nil {
		return transport.Result{}, fmt.Errorf("udpmirror: stat %s: %w", filename, err)
	}
	chunkSize := bufferSize - config.HeaderSize
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	ch, err := chunker.Open(filename, chunkSize)
	if err != nil {
		return transport.Result{}, fmt.Errorf("udpmirror: opening %s: %w", filename, err)
	}
	defer ch.Close()

	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return transport.Result{}, fmt.Errorf("udpmirror: resolving %s:%d: %w", host, port, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return transport.Result{}, fmt.Errorf("udpmirror: dialing %s:%d: %w", host, port, err)
	}
	defer conn.Close()

	fi := FileInfo{
		Filename:    baseName(filename),
		FileSize:    info.Size(),
		TotalChunks: ch.TotalChunks(),
		ChunkSize:   chunkSize,
	}
	body, err := json.Marshal(fi)
	if err != nil {
		return transport.Result{}, fmt.Errorf("udpmirror: encoding file info: %w", err)
	}
	if _, err := conn.Write(append([]byte(fileInfoMarker), body...)); err != nil {
		return transport.Result{}, fmt.Errorf("udpmirror: sending header: %w", err)
	}

	var bytesSent int64
	for {
		c, err := ch.Next()
		if err != nil {
			break
		}
		select {
		case <-ctx.Done():
			return transport.Result{}, ctx.Err()
		default:
		}
		frame := encodeMirrorFrame(mirrorFrame{Sequence: c.Sequence, TotalChunks: fi.TotalChunks, Payload: c.Payload})
		if m.Drop.ShouldDrop(c.Sequence) {
			log.Debug("synthetic drop", zap.Uint32("sequence", c.Sequence))
		} else {
			if _, err := conn.Write(frame); err != nil {
				return transport.Result{}, fmt.Errorf("udpmirror: writing frame %d: %w", c.Sequence, err)
			}
			bytesSent += int64(len(frame))
		}
		if sendInterval > 0 {
			time.Sleep(sendInterval)
		}
	}
	if _, err := conn.Write([]byte(transferEnd)); err != nil {
		return transport.Result{}, fmt.Errorf("udpmirror: sending terminator: %w", err)
	}

	reply, err := awaitReply(conn, config.UDPMirrorReplyWait)
	if err != nil {
		log.Warn("no reply from receiver", zap.Error(err))
		return transport.Result{
			Transport:  m.Name(),
			BytesSent:  bytesSent,
			Duration:   time.Since(start),
			LossEvents: [][]int32{},
			Outcome:    transport.TimedOut,
		}, nil
	}

	var lossEvents [][]int32
	if reply.PacketLoss > 0 {
		lossEvents = append(lossEvents, []int32{int32(reply.PacketLoss)})
	} else {
		lossEvents = append(lossEvents, []int32{})
	}
	log.Info("mirror transfer finished",
		zap.Bool("success", reply.Success),
		zap.Uint32("received", reply.ReceivedPackets),
		zap.Float64("loss_rate", reply.LossRate))

	return transport.Result{
		Transport:  m.Name(),
		BytesSent:  bytesSent,
		Duration:   time.Since(start),
		LossEvents: lossEvents,
		Outcome:    transport.Completed,
	}, nil
}

func awaitReply(conn *net.UDPConn, timeout time.Duration) (ResultReply, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return ResultReply{}, err
	}
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		return ResultReply{}, err
	}
	var reply ResultReply
	if err := json.Unmarshal(buf[:n], &reply); err != nil {
		return ResultReply{}, fmt.Errorf("udpmirror: decoding result reply: %w", err)
	}
	return reply, nil
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
