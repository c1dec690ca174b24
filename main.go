package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"gonetsentry/internal/analysis"
	"gonetsentry/internal/capture"
	"gonetsentry/internal/config"
	"gonetsentry/internal/logging"
	"gonetsentry/internal/metrics"
	"gonetsentry/internal/pipeline"
	"gonetsentry/internal/reporting"
	"gonetsentry/internal/tui"
)

// thresholdFlags maps command line flags to detector names.
var thresholdFlags = []struct {
	flag, detector, usage string
}{
	{"dhcp-threshold", "dhcp_flood", "DHCP flood threshold (requests per window)"},
	{"port-scan-threshold", "port_scan", "Port scan threshold (distinct ports)"},
	{"dns-exfil-threshold", "dns_exfil", "DNS exfiltration threshold (queries)"},
	{"bandwidth-threshold", "bandwidth", "Bandwidth abuse threshold (bytes)"},
	{"icmp-threshold", "icmp_flood", "ICMP flood threshold (packets per window)"},
	{"syn-threshold", "syn_flood", "SYN flood threshold (packets per window)"},
	{"http-threshold", "http_abuse", "HTTP abuse threshold (requests)"},
	{"malformed-threshold", "malformed", "Malformed packets threshold"},
	{"rogue-dhcp-threshold", "rogue_dhcp", "Rogue DHCP server threshold (active servers)"},
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gonetsentry: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to a YAML or JSON config file")
	interfaceName := flag.String("i", "", "Network interface to capture from (e.g., eth0, wlan0)")
	pcapFile := flag.String("pcap", "", "Replay a pcap/pcapng file instead of capturing live")
	filter := flag.String("filter", "", "BPF capture filter")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	useTUI := flag.Bool("tui", false, "Show the live dashboard")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	thresholds := make(map[string]*int, len(thresholdFlags))
	for _, tf := range thresholdFlags {
		thresholds[tf.flag] = flag.Int(tf.flag, 0, tf.usage)
	}
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	// Flags explicitly given on the command line win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.Interface = *interfaceName
		case "pcap":
			cfg.Capture.PcapFile = *pcapFile
		case "filter":
			cfg.Capture.Filter = *filter
		case "log-level":
			cfg.LogLevel = *logLevel
		case "tui":
			cfg.TUI.Enabled = *useTUI
		case "metrics-addr":
			cfg.Metrics.Enabled = *metricsAddr != ""
			cfg.Metrics.Addr = *metricsAddr
		}
		for _, tf := range thresholdFlags {
			if f.Name == tf.flag {
				*cfg.Detectors.Threshold(tf.detector) = *thresholds[tf.flag]
			}
		}
	})

	if err := config.Validate(cfg); err != nil {
		flag.Usage()
		return err
	}

	logOut, closeLog, err := logWriter(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	logger := logging.NewLogger(cfg.LogLevel, logOut)

	detectors, err := analysis.NewDetectors(cfg.Detectors)
	if err != nil {
		return fmt.Errorf("build detectors: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := analysis.NewTrafficStats()
	history := reporting.NewHistory(cfg.Alerts.HistoryLimit)
	reporters := reporting.Multi{history, reporting.NewLog(logger)}
	if cfg.Alerts.Console && !cfg.TUI.Enabled {
		reporters = append(reporters, reporting.NewConsole(os.Stdout))
	}
	if cfg.Kafka.Enabled {
		k := reporting.NewKafka(cfg.Kafka, logger)
		defer k.Close()
		reporters = append(reporters, k)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metrics.Serve(ctx, cfg.Metrics.Addr, m, logger)
	}

	engine := pipeline.New(detectors, pipeline.Options{
		Reporter:         reporters,
		Stats:            stats,
		Metrics:          m,
		Logger:           logger,
		ProcessingBudget: cfg.Engine.ProcessingBudget,
	})

	src, err := capture.Open(cfg.Interface, cfg.Capture, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	target := cfg.Interface
	if cfg.Capture.PcapFile != "" {
		target = cfg.Capture.PcapFile
	}
	logger.Info("starting traffic monitoring", "target", target, "detectors", len(detectors))

	captureErr := make(chan error, 1)
	go func() {
		err := src.Run(ctx, engine.Enqueue)
		engine.Close()
		captureErr <- err
	}()

	dispatchDone := make(chan error, 1)
	go func() {
		dispatchDone <- engine.Run(ctx)
	}()

	if cfg.TUI.Enabled {
		model := tui.NewAnalysisModel(stats, history, engine, target)
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			logger.Error("dashboard failed", "err", err)
		}
		stop()
	}

	if err := <-dispatchDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	// The capture goroutine exits within one read timeout of cancellation.
	if err := <-captureErr; err != nil {
		return err
	}
	logger.Info("traffic monitoring stopped")
	return nil
}

// logWriter keeps log records off the terminal while the dashboard owns it.
func logWriter(cfg *config.Config) (io.Writer, func(), error) {
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return f, func() { f.Close() }, nil
	}
	if cfg.TUI.Enabled {
		return io.Discard, func() {}, nil
	}
	return os.Stderr, func() {}, nil
}
