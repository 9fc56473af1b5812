// Package netsim provides a synthetic packet-loss policy for benchmarking
// the RDP and UDP-mirror transports under controlled loss, without
// touching a real lossy link. It is a harness knob, not a protocol
// concern: the RDP and UDP-mirror senders consult it before each
// first-attempt data-frame write; RDP retransmissions do not consult it.
package netsim

import "math/rand"

// DropPolicy decides whether a given sequence should be silently dropped
// instead of sent. Each sequence is eligible to be dropped at most once
// ("single-shot"), so a later retransmission of the same sequence is
// never dropped again — matching what a real lossy link would do once a
// packet has already been lost and retried.
type DropPolicy struct {
	rate    float64
	rnd     *rand.Rand
	dropped map[uint32]struct{}
}

// NewDropPolicy returns a policy that drops roughly rate (0..1) of
// first-attempt sequences. A non-positive rate yields nil, for which
// ShouldDrop always reports false.
func NewDropPolicy(rate float64, seed int64) *DropPolicy {
	if rate <= 0 {
		return nil
	}
	return &DropPolicy{
		rate:    rate,
		rnd:     rand.New(rand.NewSource(seed)),
		dropped: make(map[uint32]struct{}),
	}
}

// ShouldDrop reports whether seq should be dropped this time.
func (d *DropPolicy) ShouldDrop(seq uint32) bool {
	if d == nil || d.rate <= 0 {
		return false
	}
	if _, already := d.dropped[seq]; already {
		return false
	}
	if d.rnd.Float64() < d.rate {
		d.dropped[seq] = struct{}{}
		return true
	}
	return false
}
