// Command bench is the flag-driven CLI for the file-transfer harness: run
// as a server to receive transfers into a target directory, or as a
// client to push one file to a running server, over whichever transport
// -transport names.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/minmunui/rudp-vs-tcp/internal/config"
	"github.com/minmunui/rudp-vs-tcp/internal/logging"
	"github.com/minmunui/rudp-vs-tcp/internal/netsim"
	"github.com/minmunui/rudp-vs-tcp/internal/quicxfer"
	"github.com/minmunui/rudp-vs-tcp/internal/rdp"
	"github.com/minmunui/rudp-vs-tcp/internal/tcpxfer"
	"github.com/minmunui/rudp-vs-tcp/internal/transport"
	"github.com/minmunui/rudp-vs-tcp/internal/udpmirror"
)

// resultSummary is one line of the JSON result log kept alongside the
// role's log file, for an external reducer to tabulate across runs.
type resultSummary struct {
	Transport  string    `json:"transport"`
	Outcome    string    `json:"outcome"`
	BytesSent  int64     `json:"bytes_sent"`
	DurationMS int64     `json:"duration_ms"`
	LossRounds int       `json:"loss_rounds"`
	Filename   string    `json:"filename"`
	Host       string    `json:"host"`
	Port       int       `json:"port"`
	FinishedAt time.Time `json:"finished_at"`
}

func appendResultSummary(logDir string, r transport.Result, filename, host string, port int) error {
	f, err := os.OpenFile(filepath.Join(logDir, "results.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := json.Marshal(resultSummary{
		Transport:  r.Transport,
		Outcome:    string(r.Outcome),
		BytesSent:  r.BytesSent,
		DurationMS: r.Duration.Milliseconds(),
		LossRounds: len(r.LossEvents),
		Filename:   filename,
		Host:       host,
		Port:       port,
		FinishedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	_, err = f.Write(append(line, '\n'))
	return err
}

func buildTransport(name config.Transport, drop *netsim.DropPolicy, log *zap.Logger) (transport.Transport, error) {
	switch name {
	case config.TransportRDP:
		return &rdp.RDP{Logger: log, Drop: drop}, nil
	case config.TransportUDP:
		return &udpmirror.Mirror{Logger: log, Drop: drop}, nil
	case config.TransportTCP:
		return &tcpxfer.TCP{Logger: log}, nil
	case config.TransportQUIC:
		return &quicxfer.QUIC{Logger: log}, nil
	default:
		return nil, fmt.Errorf("bench: unknown transport %q", name)
	}
}

func main() {
	role := flag.String("role", "client", "client or server")
	transportName := flag.String("transport", "rdp", "rdp, udp, tcp or quic")
	host := flag.String("host", "127.0.0.1", "target host (client) or bind address (server)")
	port := flag.Int("port", 19000, "UDP/TCP/QUIC port")
	file := flag.String("file", "", "file to send (client only)")
	outDir := flag.String("out", "received", "directory transfers are written into (server only)")
	bufferSize := flag.Int("buffer", 1480, "datagram/frame buffer size in bytes")
	sendInterval := flag.Duration("interval", 0, "pacing delay between chunks")
	dropRate := flag.Float64("drop-rate", 0, "synthetic single-shot-per-sequence drop rate, 0..1")
	logDir := flag.String("log-dir", defaultLogDir(), "directory role log files are written into")
	saveProfile := flag.Bool("save-profile", false, "persist these flags as the default run profile")
	flag.Parse()

	if err := logging.Init(*logDir); err != nil {
		fmt.Fprintln(os.Stderr, "bench: initializing logging:", err)
		os.Exit(1)
	}
	defer logging.Close()

	profile := config.RunProfile{
		Transport:    config.Transport(*transportName),
		Host:         *host,
		Port:         *port,
		FilePath:     *file,
		OutputDir:    *outDir,
		BufferSize:   *bufferSize,
		SendInterval: *sendInterval,
		Timeout:      config.NackWaitTimeout,
		Retries:      config.SenderMaxRetries,
		DropRate:     *dropRate,
	}

	if *role == "client" {
		if err := config.ValidateFilePath(profile.FilePath); err != nil {
			fmt.Fprintln(os.Stderr, "bench:", err)
			os.Exit(2)
		}
	}
	if err := config.ValidateHost(profile.Host); err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(2)
	}
	if err := config.ValidatePort(profile.Port); err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(2)
	}

	if *saveProfile {
		if err := config.SaveProfile(*role, profile); err != nil {
			logging.Default.Warn("could not persist run profile", zap.Error(err))
		}
	}

	var drop *netsim.DropPolicy
	if profile.DropRate > 0 {
		drop = netsim.NewDropPolicy(profile.DropRate, time.Now().UnixNano())
	}

	log := logging.Client
	if *role == "server" {
		log = logging.Server
	}
	tr, err := buildTransport(profile.Transport, drop, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch *role {
	case "server":
		if err := os.MkdirAll(profile.OutputDir, 0o755); err != nil {
			fmt.Fprintln(os.Stderr, "bench: creating output dir:", err)
			os.Exit(1)
		}
		fmt.Printf("%s server listening on %s:%d, writing into %s\n", tr.Name(), profile.Host, profile.Port, profile.OutputDir)
		if err := tr.StartServer(ctx, profile.Host, profile.Port, profile.OutputDir); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "bench: server exited:", err)
			os.Exit(1)
		}
	case "client":
		result, err := tr.SendFile(ctx, profile.FilePath, profile.Host, profile.Port, profile.BufferSize, profile.SendInterval)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bench: transfer failed:", err)
			os.Exit(1)
		}
		fmt.Printf("transport=%s outcome=%s bytes_sent=%d duration=%s loss_rounds=%d\n",
			result.Transport, result.Outcome, result.BytesSent, result.Duration, len(result.LossEvents))
		if err := appendResultSummary(*logDir, result, profile.FilePath, profile.Host, profile.Port); err != nil {
			logging.Default.Warn("could not persist result summary", zap.Error(err))
		}
	default:
		fmt.Fprintln(os.Stderr, "bench: -role must be client or server")
		os.Exit(2)
	}
}

func defaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "logs"
	}
	return home + "/.rdp-bench/logs"
}
