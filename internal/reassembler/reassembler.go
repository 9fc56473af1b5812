// Package reassembler implements the receiver-side chunk map: recording
// incoming data frames out of order, computing the missing-sequence set a
// NACK reports, and writing the finished file to disk. It is shared by the
// RDP receiver and the UDP mirror receiver.
package reassembler

import (
	"fmt"
	"os"
	"path/filepath"
)

// Map records chunk payloads by sequence number as they arrive, in
// whatever order the network delivers them.
type Map struct {
	totalChunks uint32
	chunks      map[uint32][]byte
}

// New creates an empty chunk map sized for totalChunks sequences.
func New(totalChunks uint32) *Map {
	return &Map{
		totalChunks: totalChunks,
		chunks:      make(map[uint32][]byte, totalChunks),
	}
}

// Put records the payload for sequence. A repeat delivery of an
// already-recorded sequence overwrites the prior payload.
func (m *Map) Put(seq uint32, payload []byte) {
	m.chunks[seq] = payload
}

// Len returns the number of distinct sequences recorded so far.
func (m *Map) Len() int { return len(m.chunks) }

// Complete reports whether every sequence in [0, totalChunks) has arrived.
func (m *Map) Complete() bool {
	return len(m.chunks) >= int(m.totalChunks)
}

// Missing returns every sequence in [0, totalChunks) not yet recorded, in
// ascending order. An empty, non-nil slice means the transfer is complete.
func (m *Map) Missing() []int32 {
	missing := make([]int32, 0, int(m.totalChunks)-len(m.chunks))
	for seq := uint32(0); seq < m.totalChunks; seq++ {
		if _, ok := m.chunks[seq]; !ok {
			missing = append(missing, int32(seq))
		}
	}
	return missing
}

// MaxSequence returns the largest sequence number among a set of missing
// sequences, used by the Receiver to advance its pivot after a NACK round.
func MaxSequence(seqs []int32) int32 {
	max := int32(-1)
	for _, s := range seqs {
		if s > max {
			max = s
		}
	}
	return max
}

// UniqueTargetPath appends "(1)", "(2)", … to the filename stem until it
// finds a path that does not already exist, per §4.4 finalization.
func UniqueTargetPath(dir, filename string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	ext := filepath.Ext(filename)
	stem := filename[:len(filename)-len(ext)]
	candidate := filepath.Join(dir, filename)
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s(%d)%s", stem, i, ext))
	}
}

// Write assembles the chunk map into path in sequence order. Any sequence
// absent from the map is written as a zero-length gap and reported back
// to the caller so it can log a warning, per §4.4.
func (m *Map) Write(path string) (warnings []uint32, err error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for seq := uint32(0); seq < m.totalChunks; seq++ {
		payload, ok := m.chunks[seq]
		if !ok {
			warnings = append(warnings, seq)
			continue
		}
		if _, err := f.Write(payload); err != nil {
			return warnings, fmt.Errorf("reassembler: writing chunk %d: %w", seq, err)
		}
	}
	return warnings, nil
}
