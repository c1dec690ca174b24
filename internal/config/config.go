package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Interface string          `json:"interface" yaml:"interface"`
	LogLevel  string          `json:"log_level" yaml:"log_level"`
	LogFile   string          `json:"log_file" yaml:"log_file"`
	Capture   CaptureConfig   `json:"capture" yaml:"capture"`
	Engine    EngineConfig    `json:"engine" yaml:"engine"`
	Detectors DetectorsConfig `json:"detectors" yaml:"detectors"`
	Alerts    AlertsConfig    `json:"alerts" yaml:"alerts"`
	Kafka     KafkaConfig     `json:"kafka" yaml:"kafka"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
	TUI       TUIConfig       `json:"tui" yaml:"tui"`
}

type CaptureConfig struct {
	// PcapFile replays a capture file instead of opening Interface.
	PcapFile    string `json:"pcap_file" yaml:"pcap_file"`
	Snaplen     int32  `json:"snaplen" yaml:"snaplen"`
	Promiscuous bool   `json:"promiscuous" yaml:"promiscuous"`
	Filter      string `json:"filter" yaml:"filter"`
}

type EngineConfig struct {
	ProcessingBudget time.Duration `json:"processing_budget" yaml:"processing_budget"`
}

// DetectorConfig is shared by all detectors. Window and ResetOnAlert are
// ignored by detectors that do not keep windows or counters.
type DetectorConfig struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	Threshold    int           `json:"threshold" yaml:"threshold"`
	Window       time.Duration `json:"window" yaml:"window"`
	ResetOnAlert bool          `json:"reset_on_alert" yaml:"reset_on_alert"`
}

type DetectorsConfig struct {
	ARPSpoof  DetectorConfig `json:"arp_spoof" yaml:"arp_spoof"`
	DHCPFlood DetectorConfig `json:"dhcp_flood" yaml:"dhcp_flood"`
	PortScan  DetectorConfig `json:"port_scan" yaml:"port_scan"`
	DNSExfil  DetectorConfig `json:"dns_exfil" yaml:"dns_exfil"`
	Bandwidth DetectorConfig `json:"bandwidth" yaml:"bandwidth"`
	ICMPFlood DetectorConfig `json:"icmp_flood" yaml:"icmp_flood"`
	SYNFlood  DetectorConfig `json:"syn_flood" yaml:"syn_flood"`
	Malformed DetectorConfig `json:"malformed" yaml:"malformed"`
	RogueDHCP DetectorConfig `json:"rogue_dhcp" yaml:"rogue_dhcp"`
	HTTPAbuse DetectorConfig `json:"http_abuse" yaml:"http_abuse"`
}

type AlertsConfig struct {
	Console      bool `json:"console" yaml:"console"`
	HistoryLimit int  `json:"history_limit" yaml:"history_limit"`
}

type KafkaConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type TUIConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Capture: CaptureConfig{
			Snaplen:     65536,
			Promiscuous: true,
		},
		Engine: EngineConfig{ProcessingBudget: 50 * time.Millisecond},
		Detectors: DetectorsConfig{
			ARPSpoof:  DetectorConfig{Enabled: true},
			DHCPFlood: DetectorConfig{Enabled: true, Threshold: 100, Window: time.Minute, ResetOnAlert: true},
			PortScan:  DetectorConfig{Enabled: true, Threshold: 50, ResetOnAlert: true},
			DNSExfil:  DetectorConfig{Enabled: true, Threshold: 1000, ResetOnAlert: true},
			Bandwidth: DetectorConfig{Enabled: true, Threshold: 1000000, ResetOnAlert: true},
			ICMPFlood: DetectorConfig{Enabled: true, Threshold: 500, Window: time.Minute, ResetOnAlert: false},
			SYNFlood:  DetectorConfig{Enabled: true, Threshold: 1000, Window: time.Minute, ResetOnAlert: true},
			Malformed: DetectorConfig{Enabled: true, Threshold: 50, ResetOnAlert: true},
			RogueDHCP: DetectorConfig{Enabled: true, Threshold: 1, Window: time.Hour, ResetOnAlert: true},
			HTTPAbuse: DetectorConfig{Enabled: true, Threshold: 1000, ResetOnAlert: true},
		},
		Alerts:  AlertsConfig{Console: true, HistoryLimit: 20},
		Kafka:   KafkaConfig{Topic: "gonetsentry.alerts"},
		Metrics: MetricsConfig{Addr: ":9102"},
	}
}

// Load reads a YAML (or JSON) file over the defaults. Callers run Validate
// once flag overrides have been applied.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes content over DefaultConfig without validating it, so
// command line overrides can still be applied by the caller. JSON is
// decoded as YAML flow syntax, so durations are strings such as "30s" in
// both formats.
func Parse(content []byte) (*Config, error) {
	cfg := DefaultConfig()
	if len(strings.TrimSpace(string(content))) == 0 {
		return nil, errors.New("config file is empty")
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Capture.Snaplen <= 0 {
		cfg.Capture.Snaplen = 65536
	}
	if cfg.Alerts.HistoryLimit <= 0 {
		cfg.Alerts.HistoryLimit = 20
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9102"
	}
}

// Validate rejects settings the engine cannot run with.
func Validate(cfg *Config) error {
	if cfg.Interface == "" && cfg.Capture.PcapFile == "" {
		return fmt.Errorf("%w: interface or capture.pcap_file required", ErrInvalid)
	}
	if cfg.Engine.ProcessingBudget < 0 {
		return fmt.Errorf("%w: engine.processing_budget must be >= 0", ErrInvalid)
	}
	for _, d := range cfg.Detectors.All() {
		if !d.Config.Enabled || d.Name == "arp_spoof" {
			continue
		}
		if d.Config.Threshold <= 0 {
			return fmt.Errorf("%w: detectors.%s.threshold must be > 0", ErrInvalid, d.Name)
		}
		if d.Config.Window < 0 {
			return fmt.Errorf("%w: detectors.%s.window must be >= 0", ErrInvalid, d.Name)
		}
	}
	for _, name := range []string{"dhcp_flood", "icmp_flood", "syn_flood", "rogue_dhcp"} {
		d := cfg.Detectors.Named(name)
		if d.Enabled && d.Window <= 0 {
			return fmt.Errorf("%w: detectors.%s.window must be > 0", ErrInvalid, name)
		}
	}
	if cfg.Kafka.Enabled && (len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Topic == "") {
		return fmt.Errorf("%w: kafka requires brokers and topic", ErrInvalid)
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return fmt.Errorf("%w: metrics.addr required when metrics.enabled is true", ErrInvalid)
	}
	return nil
}

// NamedDetector pairs a detector config with its key in the file.
type NamedDetector struct {
	Name   string
	Config DetectorConfig
}

// All returns every detector config in dispatch order.
func (d DetectorsConfig) All() []NamedDetector {
	return []NamedDetector{
		{"arp_spoof", d.ARPSpoof},
		{"dhcp_flood", d.DHCPFlood},
		{"port_scan", d.PortScan},
		{"dns_exfil", d.DNSExfil},
		{"bandwidth", d.Bandwidth},
		{"icmp_flood", d.ICMPFlood},
		{"syn_flood", d.SYNFlood},
		{"malformed", d.Malformed},
		{"rogue_dhcp", d.RogueDHCP},
		{"http_abuse", d.HTTPAbuse},
	}
}

// Named returns the config for name, or the zero value.
func (d DetectorsConfig) Named(name string) DetectorConfig {
	for _, nd := range d.All() {
		if nd.Name == name {
			return nd.Config
		}
	}
	return DetectorConfig{}
}

// Threshold returns a pointer to the threshold of name so flags can
// override it in place, or nil for an unknown name.
func (d *DetectorsConfig) Threshold(name string) *int {
	switch name {
	case "dhcp_flood":
		return &d.DHCPFlood.Threshold
	case "port_scan":
		return &d.PortScan.Threshold
	case "dns_exfil":
		return &d.DNSExfil.Threshold
	case "bandwidth":
		return &d.Bandwidth.Threshold
	case "icmp_flood":
		return &d.ICMPFlood.Threshold
	case "syn_flood":
		return &d.SYNFlood.Threshold
	case "malformed":
		return &d.Malformed.Threshold
	case "rogue_dhcp":
		return &d.RogueDHCP.Threshold
	case "http_abuse":
		return &d.HTTPAbuse.Threshold
	}
	return nil
}
