// Package wire implements the RDP on-wire frame formats: the fixed
// transfer header, the data frame, and the NACK frame. There is no type
// tag on the wire (§9 design note); frames are told apart by size and by
// which state the peer is in, exactly as the original transcripts do.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/minmunui/rudp-vs-tcp/internal/config"
)

var (
	// ErrShortBuffer is returned when a buffer is too small to contain
	// the frame it claims to be.
	ErrShortBuffer = errors.New("wire: buffer too short for frame")
	// ErrBadFilename is returned when a header frame's filename field
	// does not decode as UTF-8 after NUL-trimming.
	ErrBadFilename = errors.New("wire: filename field is not valid UTF-8")
)

// Header is the fixed 264-byte transfer header sent once at the start of
// an RDP, TCP or QUIC transfer. The UDP mirror does not use it; it sends
// its own textual FILE_INFO header instead.
type Header struct {
	BufferSize  uint32
	TotalChunks uint32
	Filename    string
}

// EncodeHeader packs a Header into a 512-byte, zero-padded wire frame.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, config.TransferHeaderWire)
	binary.BigEndian.PutUint32(buf[0:4], h.BufferSize)
	binary.BigEndian.PutUint32(buf[4:8], h.TotalChunks)
	name := []byte(h.Filename)
	if len(name) > config.FilenameFieldSize {
		name = name[:config.FilenameFieldSize]
	}
	copy(buf[8:8+config.FilenameFieldSize], name)
	return buf
}

// DecodeHeader reads the first 264 bytes of a header frame. Per §4.4,
// filename decode failure is reported distinctly from a short buffer so
// callers can discard-and-keep-listening rather than abort.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < config.TransferHeaderRead {
		return Header{}, ErrShortBuffer
	}
	bufferSize := binary.BigEndian.Uint32(b[0:4])
	totalChunks := binary.BigEndian.Uint32(b[4:8])
	nameField := bytes.TrimRight(b[8:config.TransferHeaderRead], "\x00")
	if !utf8.Valid(nameField) {
		return Header{}, ErrBadFilename
	}
	return Header{BufferSize: bufferSize, TotalChunks: totalChunks, Filename: string(nameField)}, nil
}

// DataFrame is one sequenced chunk of file payload.
type DataFrame struct {
	Sequence uint32
	Payload  []byte
}

// EncodeData packs a DataFrame as sequence(u32 BE) | length(u32 BE) | payload.
func EncodeData(d DataFrame) []byte {
	buf := make([]byte, config.HeaderSize+len(d.Payload))
	binary.BigEndian.PutUint32(buf[0:4], d.Sequence)
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(d.Payload)))
	copy(buf[config.HeaderSize:], d.Payload)
	return buf
}

// DecodeData unpacks a data frame, validating that the declared payload
// length is actually present in the buffer (§4.8, "data frame too short"
// is a protocol violation, not a transient error).
func DecodeData(b []byte) (DataFrame, error) {
	if len(b) < config.HeaderSize {
		return DataFrame{}, ErrShortBuffer
	}
	seq := binary.BigEndian.Uint32(b[0:4])
	length := binary.BigEndian.Uint32(b[4:8])
	if len(b) < config.HeaderSize+int(length) {
		return DataFrame{}, fmt.Errorf("%w: declared payload_length=%d, have %d", ErrShortBuffer, length, len(b)-config.HeaderSize)
	}
	payload := make([]byte, length)
	copy(payload, b[config.HeaderSize:config.HeaderSize+int(length)])
	return DataFrame{Sequence: seq, Payload: payload}, nil
}

// EncodeNack packs a set of missing sequence numbers using host-native
// byte order, per §9: this is a latent cross-architecture bug preserved
// from the original transcripts rather than normalized to big-endian.
func EncodeNack(missing []int32) []byte {
	buf := make([]byte, 4*len(missing))
	for i, seq := range missing {
		binary.NativeEndian.PutUint32(buf[i*4:i*4+4], uint32(seq))
	}
	return buf
}

// DecodeNack unpacks a host-native-order NACK frame. A zero-length frame
// decodes to an empty (non-nil) slice, the sentinel for "transfer complete".
func DecodeNack(b []byte) ([]int32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: NACK frame length %d is not a multiple of 4", ErrShortBuffer, len(b))
	}
	out := make([]int32, len(b)/4)
	for i := range out {
		out[i] = int32(binary.NativeEndian.Uint32(b[i*4 : i*4+4]))
	}
	return out, nil
}
