// Package udpmirror implements the best-effort UDP transport: a parallel,
// simpler transfer used for baseline measurement against the RDP core.
// It reuses the chunker and reassembler but has no NACK round — loss is
// only detected and reported after the fact, in a JSON reply frame.
package udpmirror

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/minmunui/rudp-vs-tcp/internal/netsim"
	"github.com/minmunui/rudp-vs-tcp/internal/transport"
)

// fileInfoMarker prefixes the textual header frame.
const fileInfoMarker = "FILE_INFO:"

// transferEnd is the literal 12-byte terminator sentinel.
const transferEnd = "TRANSFER_END"

// FileInfo is the JSON body of the header marker frame.
type FileInfo struct {
	Filename    string `json:"filename"`
	FileSize    int64  `json:"filesize"`
	TotalChunks uint32 `json:"total_chunks"`
	ChunkSize   int    `json:"chunk_size"`
}

// ResultReply is the JSON the Receiver sends back once it concludes a
// transfer, whether or not every chunk arrived.
type ResultReply struct {
	Success         bool    `json:"success"`
	ReceivedPackets uint32  `json:"received_packets"`
	ExpectedPackets uint32  `json:"expected_packets"`
	PacketLoss      uint32  `json:"packet_loss"`
	LossRate        float64 `json:"loss_rate"`
	Error           string  `json:"error,omitempty"`
}

// mirrorFrame is sequence(u32 BE) | total_chunks(u32 BE) |
// payload_length(u32 BE) | payload — distinct from the RDP data frame
// because each mirror frame is self-describing (no prior header state
// to depend on, since there is no pivot/NACK negotiation to rely on).
type mirrorFrame struct {
	Sequence    uint32
	TotalChunks uint32
	Payload     []byte
}

func encodeMirrorFrame(f mirrorFrame) []byte {
	buf := make([]byte, 12+len(f.Payload))
	binary.BigEndian.PutUint32(buf[0:4], f.Sequence)
	binary.BigEndian.PutUint32(buf[4:8], f.TotalChunks)
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(f.Payload)))
	copy(buf[12:], f.Payload)
	return buf
}

func decodeMirrorFrame(b []byte) (mirrorFrame, error) {
	if len(b) < 12 {
		return mirrorFrame{}, fmt.Errorf("udpmirror: frame too short: %d bytes", len(b))
	}
	seq := binary.BigEndian.Uint32(b[0:4])
	total := binary.BigEndian.Uint32(b[4:8])
	length := binary.BigEndian.Uint32(b[8:12])
	if len(b) < 12+int(length) {
		return mirrorFrame{}, fmt.Errorf("udpmirror: declared payload_length=%d, have %d", length, len(b)-12)
	}
	payload := make([]byte, length)
	copy(payload, b[12:12+int(length)])
	return mirrorFrame{Sequence: seq, TotalChunks: total, Payload: payload}, nil
}

// Mirror implements transport.Transport for the best-effort UDP path.
type Mirror struct {
	Logger *zap.Logger
	Drop   *netsim.DropPolicy
}

var _ transport.Transport = (*Mirror)(nil)

func (m *Mirror) Name() string { return "udp" }

func (m *Mirror) logger() *zap.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return zap.NewNop()
}
