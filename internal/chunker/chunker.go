// Package chunker slices a file into the fixed-size, sequence-numbered
// payloads the RDP core and the UDP mirror both send as data frames.
package chunker

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Chunk is one sequenced slice of source-file payload. All chunks but the
// last are exactly the chunk size passed to Open; the last may be shorter.
type Chunk struct {
	Sequence uint32
	Payload  []byte
}

// Chunker produces a finite, non-restartable, in-order stream of Chunks
// from an open file. It is not safe for concurrent use by multiple
// goroutines; the Sender state machine drives it from a single goroutine.
type Chunker struct {
	f           *os.File
	chunkSize   int
	totalChunks uint32
	next        uint32
}

// Open stats path, computes TotalChunks from its size and chunkSize, and
// returns a Chunker positioned at sequence 0. The caller must call Close.
func Open(path string, chunkSize int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunker: chunk size must be positive, got %d", chunkSize)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	total := ceilDiv(info.Size(), int64(chunkSize))
	return &Chunker{f: f, chunkSize: chunkSize, totalChunks: uint32(total)}, nil
}

func ceilDiv(a, b int64) int64 {
	if a == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// TotalChunks is the count that goes in the transfer header.
func (c *Chunker) TotalChunks() uint32 { return c.totalChunks }

// Next reads and returns the next Chunk in sequence order. It returns
// io.EOF once every chunk through TotalChunks-1 has been produced; the
// producer is not restartable after that.
func (c *Chunker) Next() (Chunk, error) {
	if c.next >= c.totalChunks {
		return Chunk{}, io.EOF
	}
	buf := make([]byte, c.chunkSize)
	n, err := io.ReadFull(c.f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return Chunk{}, err
	}
	seq := c.next
	c.next++
	return Chunk{Sequence: seq, Payload: buf[:n]}, nil
}

// Seq reads the payload for an arbitrary sequence number without
// disturbing Next's cursor. The RDP Sender does not call it: it
// retransmits from its packet dictionary and never re-reads the file.
func (c *Chunker) Seq(seq uint32) (Chunk, error) {
	if seq >= c.totalChunks {
		return Chunk{}, fmt.Errorf("chunker: sequence %d out of range [0,%d)", seq, c.totalChunks)
	}
	off := int64(seq) * int64(c.chunkSize)
	buf := make([]byte, c.chunkSize)
	n, err := c.f.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return Chunk{}, err
	}
	return Chunk{Sequence: seq, Payload: buf[:n]}, nil
}

// Close releases the underlying file handle.
func (c *Chunker) Close() error {
	return c.f.Close()
}
