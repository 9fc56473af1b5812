package ui

import (
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"

	"github.com/minmunui/rudp-vs-tcp/internal/transport"
)

func TestProgressIndicatorSetProgressComputesFraction(t *testing.T) {
	test.NewApp()
	pi := NewProgressIndicator()
	pi.SetProgress(50, 100, time.Second)
	assert.Equal(t, float64(0.5), pi.bar.Value)
}

func TestOutcomeIndicatorLabelsCompletedAndTimedOut(t *testing.T) {
	test.NewApp()
	oi := NewOutcomeIndicator()
	oi.SetOutcome(transport.Completed)
	assert.Equal(t, "completed", oi.label.Text)
	oi.SetOutcome(transport.TimedOut)
	assert.Equal(t, "timed out", oi.label.Text)
}

func TestResultPanelAppendsMultipleLines(t *testing.T) {
	test.NewApp()
	rp := NewResultPanel()
	rp.Append(transport.Result{Transport: "rdp", BytesSent: 1024, Duration: time.Second, Outcome: transport.Completed})
	rp.Append(transport.Result{Transport: "tcp", BytesSent: 2048, Duration: 2 * time.Second, Outcome: transport.Completed})
	assert.Contains(t, rp.content.Text, "rdp")
	assert.Contains(t, rp.content.Text, "tcp")
	rp.Clear()
	assert.Equal(t, "", rp.content.Text)
}

func TestSanitizeFilePathStripsShellMetacharacters(t *testing.T) {
	assert.Equal(t, "rm -rf whoami", SanitizeFilePath("rm -rf `whoami`"))
	assert.Equal(t, "ab", SanitizeFilePath("a;b"))
}

func TestValidationIndicatorTogglesIconAndMessage(t *testing.T) {
	test.NewApp()
	vi := NewValidationIndicator()
	vi.SetValid(true, "ok")
	assert.Equal(t, "✓", vi.icon.Text)
	vi.SetValid(false, "bad host")
	assert.Equal(t, "✗", vi.icon.Text)
	assert.Equal(t, "bad host", vi.label.Text)
}
