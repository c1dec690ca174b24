package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	want := map[string]int{
		"dhcp_flood": 100,
		"port_scan":  50,
		"dns_exfil":  1000,
		"bandwidth":  1000000,
		"icmp_flood": 500,
		"syn_flood":  1000,
		"malformed":  50,
		"rogue_dhcp": 1,
		"http_abuse": 1000,
	}
	for name, threshold := range want {
		if got := cfg.Detectors.Named(name).Threshold; got != threshold {
			t.Errorf("%s threshold = %d, want %d", name, got, threshold)
		}
	}
	if cfg.Detectors.ICMPFlood.ResetOnAlert {
		t.Error("icmp_flood resets on alert by default")
	}
	if cfg.Detectors.RogueDHCP.Window != time.Hour {
		t.Errorf("rogue_dhcp window = %v, want 1h", cfg.Detectors.RogueDHCP.Window)
	}
	if len(cfg.Detectors.All()) != 10 {
		t.Errorf("All() returned %d detectors", len(cfg.Detectors.All()))
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gonetsentry.yaml")
	content := `
interface: eth1
log_level: debug
engine:
  processing_budget: 20ms
detectors:
  syn_flood:
    enabled: true
    threshold: 3
  port_scan:
    enabled: false
kafka:
  enabled: true
  brokers: ["localhost:9092"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Interface != "eth1" || cfg.LogLevel != "debug" {
		t.Errorf("interface=%q log_level=%q", cfg.Interface, cfg.LogLevel)
	}
	if cfg.Engine.ProcessingBudget != 20*time.Millisecond {
		t.Errorf("processing budget = %v", cfg.Engine.ProcessingBudget)
	}
	if cfg.Detectors.SYNFlood.Threshold != 3 {
		t.Errorf("syn threshold = %d", cfg.Detectors.SYNFlood.Threshold)
	}
	if cfg.Detectors.SYNFlood.Window != time.Minute {
		t.Errorf("syn window = %v, want default 1m kept", cfg.Detectors.SYNFlood.Window)
	}
	if cfg.Detectors.PortScan.Enabled {
		t.Error("port_scan still enabled")
	}
	if cfg.Kafka.Topic != "gonetsentry.alerts" {
		t.Errorf("kafka topic = %q, want default", cfg.Kafka.Topic)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseJSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"capture": {"pcap_file": "trace.pcap"}, "alerts": {"history_limit": 0}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Capture.PcapFile != "trace.pcap" {
		t.Errorf("pcap_file = %q", cfg.Capture.PcapFile)
	}
	if cfg.Alerts.HistoryLimit != 20 {
		t.Errorf("history_limit = %d, want default 20", cfg.Alerts.HistoryLimit)
	}
}

func TestDurationsAgreeAcrossFormats(t *testing.T) {
	inputs := map[string]string{
		"yaml": "engine:\n  processing_budget: 20ms\ndetectors:\n  icmp_flood:\n    enabled: true\n    threshold: 9\n    window: 30s\n",
		"json": `{
  "engine": {"processing_budget": "20ms"},
  "detectors": {"icmp_flood": {"enabled": true, "threshold": 9, "window": "30s"}}
}`,
	}
	for format, content := range inputs {
		cfg, err := Parse([]byte(content))
		if err != nil {
			t.Fatalf("%s: Parse: %v", format, err)
		}
		if cfg.Engine.ProcessingBudget != 20*time.Millisecond {
			t.Errorf("%s: processing budget = %v", format, cfg.Engine.ProcessingBudget)
		}
		icmp := cfg.Detectors.ICMPFlood
		if icmp.Window != 30*time.Second || icmp.Threshold != 9 {
			t.Errorf("%s: icmp_flood = %+v", format, icmp)
		}
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte("  \n")); err == nil {
		t.Error("empty config accepted")
	}
	if _, err := Parse([]byte("detectors: [")); err == nil {
		t.Error("broken YAML accepted")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no input", func(c *Config) { c.Interface = "" }},
		{"negative budget", func(c *Config) { c.Engine.ProcessingBudget = -time.Second }},
		{"zero threshold", func(c *Config) { c.Detectors.DNSExfil.Threshold = 0 }},
		{"negative window", func(c *Config) { c.Detectors.Bandwidth.Window = -time.Second }},
		{"windowless flood", func(c *Config) { c.Detectors.SYNFlood.Window = 0 }},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true }},
		{"metrics without addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Interface = "eth0"
			tc.mutate(cfg)
			if err := Validate(cfg); !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Interface = "eth0"
	cfg.Detectors.DNSExfil = DetectorConfig{}
	if err := Validate(cfg); err != nil {
		t.Errorf("disabled detector with zero threshold rejected: %v", err)
	}
}

func TestThresholdPointer(t *testing.T) {
	cfg := DefaultConfig()
	*cfg.Detectors.Threshold("icmp_flood") = 7
	if cfg.Detectors.ICMPFlood.Threshold != 7 {
		t.Errorf("icmp threshold = %d, want 7", cfg.Detectors.ICMPFlood.Threshold)
	}
	if cfg.Detectors.Threshold("arp_spoof") != nil {
		t.Error("arp_spoof has no threshold")
	}
}
