package netsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDropPolicyReturnsNilForNonPositiveRate(t *testing.T) {
	assert.Nil(t, NewDropPolicy(0, 1))
	assert.Nil(t, NewDropPolicy(-0.1, 1))
}

func TestNilDropPolicyNeverDrops(t *testing.T) {
	var d *DropPolicy
	assert.False(t, d.ShouldDrop(0))
	assert.False(t, d.ShouldDrop(9999))
}

func TestDropPolicyIsSingleShotPerSequence(t *testing.T) {
	d := NewDropPolicy(1.0, 1) // rate 1.0: first attempt always dropped
	assert.True(t, d.ShouldDrop(5))
	assert.False(t, d.ShouldDrop(5), "a sequence already dropped once must not be dropped again")
}

func TestDropPolicyRoughlyMatchesRequestedRate(t *testing.T) {
	d := NewDropPolicy(0.5, 42)
	dropped := 0
	const n = 2000
	for seq := uint32(0); seq < n; seq++ {
		if d.ShouldDrop(seq) {
			dropped++
		}
	}
	frac := float64(dropped) / float64(n)
	assert.InDelta(t, 0.5, frac, 0.1)
}
