package ui

import (
	"fmt"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/minmunui/rudp-vs-tcp/internal/transport"
)

// ProgressIndicator shows a run's progress bar alongside throughput and
// an ETA, recomputed each time SetProgress is called.
type ProgressIndicator struct {
	widget.BaseWidget
	bar    *widget.ProgressBar
	status *widget.Label
	speed  *widget.Label
	eta    *widget.Label
}

func NewProgressIndicator() *ProgressIndicator {
	pi := &ProgressIndicator{
		bar:    widget.NewProgressBar(),
		status: widget.NewLabel("idle"),
		speed:  widget.NewLabel("0 B/s"),
		eta:    widget.NewLabel("--:--"),
	}
	pi.ExtendBaseWidget(pi)
	return pi
}

func (pi *ProgressIndicator) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewVBox(
		pi.status,
		pi.bar,
		container.NewHBox(pi.speed, widget.NewSeparator(), pi.eta),
	))
}

// SetProgress updates the bar given bytes transferred so far out of
// total, and the elapsed time since the run started.
func (pi *ProgressIndicator) SetProgress(sent, total int64, elapsed time.Duration) {
	if total <= 0 {
		pi.bar.SetValue(0)
		return
	}
	frac := float64(sent) / float64(total)
	pi.bar.SetValue(frac)

	if elapsed <= 0 {
		return
	}
	bps := float64(sent) / elapsed.Seconds()
	pi.speed.SetText(formatBytes(bps) + "/s")
	if bps > 0 && total > sent {
		remaining := float64(total-sent) / bps
		pi.eta.SetText(formatDuration(remaining))
	} else {
		pi.eta.SetText("--:--")
	}
}

func (pi *ProgressIndicator) SetStatus(status string) {
	pi.status.SetText(status)
}

// OutcomeIndicator renders a transport.Result's outcome as a colored dot
// plus label, the completed/timed-out counterpart of a connection status
// light.
type OutcomeIndicator struct {
	widget.BaseWidget
	icon  *widget.Label
	label *widget.Label
}

func NewOutcomeIndicator() *OutcomeIndicator {
	oi := &OutcomeIndicator{
		icon:  widget.NewLabel("●"),
		label: widget.NewLabel("no run yet"),
	}
	oi.ExtendBaseWidget(oi)
	return oi
}

func (oi *OutcomeIndicator) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewHBox(oi.icon, oi.label))
}

func (oi *OutcomeIndicator) SetOutcome(o transport.Outcome) {
	switch o {
	case transport.Completed:
		oi.label.SetText("completed")
		oi.icon.Importance = widget.SuccessImportance
	case transport.TimedOut:
		oi.label.SetText("timed out")
		oi.icon.Importance = widget.DangerImportance
	default:
		oi.label.SetText(string(o))
		oi.icon.Importance = widget.MediumImportance
	}
}

// ResultPanel renders a completed transport.Result as a readable summary
// block, appended to a running transcript so successive runs can be
// compared within one session.
type ResultPanel struct {
	widget.BaseWidget
	content *widget.Label
}

func NewResultPanel() *ResultPanel {
	rp := &ResultPanel{content: widget.NewLabel("")}
	rp.content.Wrapping = fyne.TextWrapWord
	rp.ExtendBaseWidget(rp)
	return rp
}

func (rp *ResultPanel) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewVBox(rp.content))
}

func (rp *ResultPanel) Append(r transport.Result) {
	line := fmt.Sprintf("[%s] %s in %s (%s), %d loss round(s)",
		r.Transport, formatBytes(float64(r.BytesSent)), r.Duration.Round(time.Millisecond), r.Outcome, len(r.LossEvents))
	if current := rp.content.Text; current == "" {
		rp.content.SetText(line)
	} else {
		rp.content.SetText(current + "\n" + line)
	}
}

func (rp *ResultPanel) Clear() {
	rp.content.SetText("")
}

// ValidationIndicator marks a form field valid or invalid with a
// checkmark/cross and an explanatory message.
type ValidationIndicator struct {
	widget.BaseWidget
	icon  *widget.Label
	label *widget.Label
}

func NewValidationIndicator() *ValidationIndicator {
	vi := &ValidationIndicator{icon: widget.NewLabel("✗"), label: widget.NewLabel("")}
	vi.icon.Importance = widget.DangerImportance
	vi.ExtendBaseWidget(vi)
	return vi
}

func (vi *ValidationIndicator) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewHBox(vi.icon, vi.label))
}

func (vi *ValidationIndicator) SetValid(valid bool, message string) {
	vi.label.SetText(message)
	if valid {
		vi.icon.SetText("✓")
		vi.icon.Importance = widget.SuccessImportance
	} else {
		vi.icon.SetText("✗")
		vi.icon.Importance = widget.DangerImportance
	}
}

func formatBytes(bytes float64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	unit := 0
	for bytes >= 1024 && unit < len(units)-1 {
		bytes /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%.0f %s", bytes, units[unit])
	}
	return fmt.Sprintf("%.1f %s", bytes, units[unit])
}

func formatDuration(seconds float64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.0fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%02d:%02d", int(seconds)/60, int(seconds)%60)
	default:
		h := int(seconds) / 3600
		m := (int(seconds) - h*3600) / 60
		return fmt.Sprintf("%02d:%02d:00", h, m)
	}
}

// SanitizeFilePath strips characters that have no business in a path
// supplied through a text entry.
func SanitizeFilePath(path string) string {
	path = strings.TrimSpace(path)
	for _, bad := range []string{"`", "|", "&", ";"} {
		path = strings.ReplaceAll(path, bad, "")
	}
	return path
}
