package quicxfer

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/quic-go/quic-go"
	"go.uber.org/zap"

	"github.com/minmunui/rudp-vs-tcp/internal/config"
	"github.com/minmunui/rudp-vs-tcp/internal/reassembler"
	"github.com/minmunui/rudp-vs-tcp/internal/wire"
)

// receiveStream reads a transfer header followed by chunks until the
// sender half-closes its write side, then finalizes the file.
func (q *QUIC) receiveStream(stream quic.Stream, targetDir string, log *zap.Logger) error {
	headerBuf := make([]byte, config.TransferHeaderRead)
	if _, err := io.ReadFull(stream, headerBuf); err != nil {
		return fmt.Errorf("quicxfer: reading header: %w", err)
	}
	header, err := wire.DecodeHeader(headerBuf)
	if err != nil {
		return fmt.Errorf("quicxfer: decoding header: %w", err)
	}

	log.Info("transfer started", zap.String("filename", header.Filename), zap.Uint32("total_chunks", header.TotalChunks))

	chunkMap := reassembler.New(header.TotalChunks)
	frameHeader := make([]byte, config.HeaderSize)
	for {
		if _, err := io.ReadFull(stream, frameHeader); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return fmt.Errorf("quicxfer: reading frame header: %w", err)
		}
		seq, length := decodeFrameHeader(frameHeader)
		payload := make([]byte, length)
		if _, err := io.ReadFull(stream, payload); err != nil {
			return fmt.Errorf("quicxfer: reading chunk %d payload: %w", seq, err)
		}
		chunkMap.Put(seq, payload)
	}

	path, err := reassembler.UniqueTargetPath(targetDir, header.Filename)
	if err != nil {
		return fmt.Errorf("quicxfer: preparing target path: %w", err)
	}
	warnings, err := chunkMap.Write(path)
	if err != nil {
		return fmt.Errorf("quicxfer: writing %s: %w", path, err)
	}
	for _, seq := range warnings {
		log.Warn("sequence absent at finalization", zap.Uint32("sequence", seq), zap.String("path", path))
	}
	log.Info("transfer complete", zap.String("path", path), zap.Int("chunks", chunkMap.Len()))
	return nil
}

func decodeFrameHeader(b []byte) (seq, length uint32) {
	return binary.BigEndian.Uint32(b[0:4]), binary.BigEndian.Uint32(b[4:8])
}
