// Command gui is a Fyne dashboard over the same four transports the CLI
// drives: pick a transport and role, fill in the host/port/file fields,
// and watch the run's outcome land in a running result transcript.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/minmunui/rudp-vs-tcp/internal/config"
	"github.com/minmunui/rudp-vs-tcp/internal/logging"
	"github.com/minmunui/rudp-vs-tcp/internal/metrics"
	"github.com/minmunui/rudp-vs-tcp/internal/netsim"
	"github.com/minmunui/rudp-vs-tcp/internal/quicxfer"
	"github.com/minmunui/rudp-vs-tcp/internal/rdp"
	"github.com/minmunui/rudp-vs-tcp/internal/tcpxfer"
	"github.com/minmunui/rudp-vs-tcp/internal/transport"
	"github.com/minmunui/rudp-vs-tcp/internal/udpmirror"
	"github.com/minmunui/rudp-vs-tcp/internal/ui"

	"go.uber.org/zap"
)

func buildTransport(name string, drop *netsim.DropPolicy, log *zap.Logger) transport.Transport {
	switch name {
	case "rdp":
		return &rdp.RDP{Logger: log, Drop: drop}
	case "udp":
		return &udpmirror.Mirror{Logger: log, Drop: drop}
	case "tcp":
		return &tcpxfer.TCP{Logger: log}
	case "quic":
		return &quicxfer.QUIC{Logger: log}
	default:
		return nil
	}
}

func main() {
	logDir := "logs"
	if home, err := os.UserHomeDir(); err == nil {
		logDir = home + "/.rdp-bench/logs"
	}
	if err := logging.Init(logDir); err != nil {
		fmt.Fprintln(os.Stderr, "gui: initializing logging:", err)
		os.Exit(1)
	}
	defer logging.Close()

	collector := metrics.NewCollector()

	a := app.New()
	a.Settings().SetTheme(ui.NewBenchTheme())
	w := a.NewWindow("RDP vs TCP Benchmark")

	profile := config.DefaultRunProfile()

	transportSelect := widget.NewSelect([]string{"rdp", "udp", "tcp", "quic"}, func(string) {})
	transportSelect.SetSelected("rdp")
	roleSelect := widget.NewSelect([]string{"client", "server"}, func(string) {})
	roleSelect.SetSelected("client")

	hostEntry := widget.NewEntry()
	hostEntry.SetText(profile.Host)
	portEntry := widget.NewEntry()
	portEntry.SetText(strconv.Itoa(profile.Port))
	fileEntry := widget.NewEntry()
	fileEntry.SetText(profile.FilePath)
	fileEntry.OnChanged = func(text string) {
		if clean := ui.SanitizeFilePath(text); clean != text {
			fileEntry.SetText(clean)
		}
	}
	targetDirEntry := widget.NewEntry()
	targetDirEntry.SetText(profile.OutputDir)
	bufferEntry := widget.NewEntry()
	bufferEntry.SetText(strconv.Itoa(profile.BufferSize))
	dropRateEntry := widget.NewEntry()
	dropRateEntry.SetText(strconv.FormatFloat(profile.DropRate, 'f', -1, 64))

	progress := ui.NewProgressIndicator()
	outcome := ui.NewOutcomeIndicator()
	results := ui.NewResultPanel()

	form := widget.NewForm(
		widget.NewFormItem("Transport", transportSelect),
		widget.NewFormItem("Role", roleSelect),
		widget.NewFormItem("Host", hostEntry),
		widget.NewFormItem("Port", portEntry),
		widget.NewFormItem("File", fileEntry),
		widget.NewFormItem("Target dir", targetDirEntry),
		widget.NewFormItem("Buffer size", bufferEntry),
		widget.NewFormItem("Drop rate", dropRateEntry),
	)

	var cancelServer context.CancelFunc

	runButton := widget.NewButton("Run", func() {
		port, err := strconv.Atoi(portEntry.Text)
		if err != nil {
			dialog.ShowError(fmt.Errorf("bad port: %w", err), w)
			return
		}
		bufferSize, err := strconv.Atoi(bufferEntry.Text)
		if err != nil {
			dialog.ShowError(fmt.Errorf("bad buffer size: %w", err), w)
			return
		}
		dropRate, err := strconv.ParseFloat(dropRateEntry.Text, 64)
		if err != nil {
			dropRate = 0
		}

		name := transportSelect.Selected
		log := logging.Client
		if roleSelect.Selected == "server" {
			log = logging.Server
		}

		var drop *netsim.DropPolicy
		if dropRate > 0 {
			drop = netsim.NewDropPolicy(dropRate, 1)
		}
		tr := buildTransport(name, drop, log)
		if tr == nil {
			dialog.ShowError(fmt.Errorf("unknown transport %q", name), w)
			return
		}

		if roleSelect.Selected == "server" {
			if cancelServer != nil {
				cancelServer()
			}
			ctx, cancel := context.WithCancel(context.Background())
			cancelServer = cancel
			progress.SetStatus("server running")
			go func() {
				if err := tr.StartServer(ctx, hostEntry.Text, port, targetDirEntry.Text); err != nil {
					progress.SetStatus("server error: " + err.Error())
				}
			}()
			return
		}

		progress.SetStatus("running")
		start := time.Now()
		go func() {
			res, err := tr.SendFile(context.Background(), fileEntry.Text, hostEntry.Text, port, bufferSize, profile.SendInterval)
			if err != nil {
				progress.SetStatus("error: " + err.Error())
				return
			}
			collector.Record(res)
			outcome.SetOutcome(res.Outcome)
			results.Append(res)
			progress.SetProgress(res.BytesSent, res.BytesSent, time.Since(start))
			progress.SetStatus("done")
		}()
	})

	clearButton := widget.NewButton("Clear log", results.Clear)

	content := container.NewVBox(
		form,
		container.NewHBox(runButton, clearButton),
		outcome,
		progress,
		widget.NewSeparator(),
		results,
	)

	w.SetContent(container.NewPadded(content))
	w.Resize(fyne.NewSize(640, 480))
	w.ShowAndRun()
}
