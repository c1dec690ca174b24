package analysis

import (
	"errors"
	"fmt"
	"time"

	"gonetsentry/internal/config"
	"gonetsentry/internal/models"
)

// AnomalyType represents the type of anomaly detected.
type AnomalyType string

const (
	AnomalyARPSpoofing AnomalyType = "ARP_SPOOFING"
	AnomalyDHCPFlood   AnomalyType = "DHCP_FLOOD"
	AnomalyPortScan    AnomalyType = "PORT_SCAN"
	AnomalyDNSExfil    AnomalyType = "DNS_EXFILTRATION"
	AnomalyBandwidth   AnomalyType = "BANDWIDTH_ABUSE"
	AnomalyICMPFlood   AnomalyType = "ICMP_FLOOD"
	AnomalySYNFlood    AnomalyType = "SYN_FLOOD"
	AnomalyMalformed   AnomalyType = "MALFORMED_PACKETS"
	AnomalyRogueDHCP   AnomalyType = "ROGUE_DHCP_SERVER"
	AnomalyHTTPAbuse   AnomalyType = "HTTP_ABUSE"
)

var (
	// ErrNoNetworkLayer is returned by detectors keyed on source IP when the
	// packet carries their trigger layer without an IP header.
	ErrNoNetworkLayer = errors.New("packet has no network layer")
	// ErrNoLinkLayer is returned when a MAC-keyed detector cannot find a hardware address.
	ErrNoLinkLayer = errors.New("packet has no hardware source address")
	// ErrInvalidThreshold rejects a detector built with a non-positive threshold.
	ErrInvalidThreshold = errors.New("threshold must be > 0")
)

// Alert represents a detected security anomaly.
type Alert struct {
	Type      AnomalyType `json:"type"`
	Source    string      `json:"source"` // IP or MAC the detector keyed on
	Count     int         `json:"count"`
	Message   string      `json:"message"` // Human-readable description
	Timestamp time.Time   `json:"timestamp"`
}

// String returns the alert text handed to text sinks.
func (a Alert) String() string {
	return a.Message
}

// Detector classifies one packet against its own keyed state.
//
// Inspect returns a non-nil alert when the packet pushes a key over the
// threshold. Detectors are not safe for concurrent use; the dispatch loop
// is their only caller.
type Detector interface {
	Type() AnomalyType
	Inspect(pkt *models.Packet, now time.Time) (*Alert, error)
}

// NewDetectors builds the enabled detectors in dispatch order.
func NewDetectors(cfg config.DetectorsConfig) ([]Detector, error) {
	builders := []struct {
		name  string
		cfg   config.DetectorConfig
		build func(config.DetectorConfig) Detector
	}{
		{"arp_spoof", cfg.ARPSpoof, func(config.DetectorConfig) Detector { return NewARPSpoofDetector() }},
		{"dhcp_flood", cfg.DHCPFlood, func(c config.DetectorConfig) Detector { return NewDHCPFloodDetector(c) }},
		{"port_scan", cfg.PortScan, func(c config.DetectorConfig) Detector { return NewPortScanDetector(c) }},
		{"dns_exfil", cfg.DNSExfil, func(c config.DetectorConfig) Detector { return NewDNSExfilDetector(c) }},
		{"bandwidth", cfg.Bandwidth, func(c config.DetectorConfig) Detector { return NewBandwidthDetector(c) }},
		{"icmp_flood", cfg.ICMPFlood, func(c config.DetectorConfig) Detector { return NewICMPFloodDetector(c) }},
		{"syn_flood", cfg.SYNFlood, func(c config.DetectorConfig) Detector { return NewSYNFloodDetector(c) }},
		{"malformed", cfg.Malformed, func(c config.DetectorConfig) Detector { return NewMalformedDetector(c) }},
		{"rogue_dhcp", cfg.RogueDHCP, func(c config.DetectorConfig) Detector { return NewRogueDHCPDetector(c) }},
		{"http_abuse", cfg.HTTPAbuse, func(c config.DetectorConfig) Detector { return NewHTTPAbuseDetector(c) }},
	}

	detectors := make([]Detector, 0, len(builders))
	for _, b := range builders {
		if !b.cfg.Enabled {
			continue
		}
		if b.name != "arp_spoof" && b.cfg.Threshold <= 0 {
			return nil, fmt.Errorf("%s: %w (got %d)", b.name, ErrInvalidThreshold, b.cfg.Threshold)
		}
		detectors = append(detectors, b.build(b.cfg))
	}
	return detectors, nil
}

// span describes the interval a count was accumulated over.
func span(window time.Duration) string {
	if window <= 0 {
		return "since last alert"
	}
	return "in the last " + shortDuration(window)
}

func shortDuration(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	}
	return d.String()
}
