package analysis

import (
	"fmt"
	"time"

	"gonetsentry/internal/config"
	"gonetsentry/internal/models"
)

// matchFunc extracts the key and weight a packet contributes. ok is false
// when the packet does not concern the detector.
type matchFunc func(pkt *models.Packet) (key string, weight int, ok bool, err error)

type formatFunc func(key string, total int, window time.Duration) string

// RateDetector counts weighted events per key over a trailing window and
// alerts when the total exceeds the threshold. The flood, exfiltration,
// bandwidth, malformed and HTTP detectors are all RateDetectors.
type RateDetector struct {
	kind         AnomalyType
	threshold    int
	window       time.Duration
	resetOnAlert bool
	match        matchFunc
	format       formatFunc

	windows   map[string]*Window
	lastSweep time.Time
}

func newRateDetector(kind AnomalyType, cfg config.DetectorConfig, match matchFunc, format formatFunc) *RateDetector {
	return &RateDetector{
		kind:         kind,
		threshold:    cfg.Threshold,
		window:       cfg.Window,
		resetOnAlert: cfg.ResetOnAlert,
		match:        match,
		format:       format,
		windows:      make(map[string]*Window),
	}
}

func (d *RateDetector) Type() AnomalyType {
	return d.kind
}

func (d *RateDetector) Inspect(pkt *models.Packet, now time.Time) (*Alert, error) {
	key, weight, ok, err := d.match(pkt)
	if err != nil || !ok {
		return nil, err
	}
	d.sweep(now)

	w, exists := d.windows[key]
	if !exists {
		w = NewWindow(d.window)
		d.windows[key] = w
	}
	w.Add(now, weight)
	w.Evict(now)

	total := w.Sum()
	if total <= d.threshold {
		return nil, nil
	}
	alert := &Alert{
		Type:      d.kind,
		Source:    key,
		Count:     total,
		Message:   d.format(key, total, d.window),
		Timestamp: now,
	}
	if d.resetOnAlert {
		delete(d.windows, key)
	}
	return alert, nil
}

// Tracked returns the current total for key.
func (d *RateDetector) Tracked(key string) int {
	if w, ok := d.windows[key]; ok {
		return w.Sum()
	}
	return 0
}

// sweep drops idle keys once per window so sources that went quiet do
// not pin memory.
func (d *RateDetector) sweep(now time.Time) {
	if d.window <= 0 {
		return
	}
	if d.lastSweep.IsZero() {
		d.lastSweep = now
		return
	}
	if now.Sub(d.lastSweep) < d.window {
		return
	}
	for key, w := range d.windows {
		w.Evict(now)
		if w.Empty() {
			delete(d.windows, key)
		}
	}
	d.lastSweep = now
}

func srcIPKey(pkt *models.Packet) (string, error) {
	key := pkt.SrcIP()
	if key == "" {
		return "", ErrNoNetworkLayer
	}
	return key, nil
}

// NewDHCPFloodDetector counts DHCP client requests per source MAC.
func NewDHCPFloodDetector(cfg config.DetectorConfig) *RateDetector {
	match := func(pkt *models.Packet) (string, int, bool, error) {
		if pkt.DHCP == nil || pkt.DHCP.Operation != models.DHCPOpRequest {
			return "", 0, false, nil
		}
		key := pkt.SrcMAC()
		if key == "" && len(pkt.DHCP.ClientMAC) > 0 {
			key = pkt.DHCP.ClientMAC.String()
		}
		if key == "" {
			return "", 0, false, ErrNoLinkLayer
		}
		return key, 1, true, nil
	}
	format := func(key string, total int, window time.Duration) string {
		return fmt.Sprintf("DHCP flood detected from %s: %d requests %s.", key, total, span(window))
	}
	return newRateDetector(AnomalyDHCPFlood, cfg, match, format)
}

// NewICMPFloodDetector counts ICMP and ICMPv6 messages per source IP.
func NewICMPFloodDetector(cfg config.DetectorConfig) *RateDetector {
	match := func(pkt *models.Packet) (string, int, bool, error) {
		if pkt.ICMP == nil {
			return "", 0, false, nil
		}
		key, err := srcIPKey(pkt)
		if err != nil {
			return "", 0, false, err
		}
		return key, 1, true, nil
	}
	format := func(key string, total int, window time.Duration) string {
		return fmt.Sprintf("ICMP flood detected from %s: %d ICMP packets %s.", key, total, span(window))
	}
	return newRateDetector(AnomalyICMPFlood, cfg, match, format)
}

// NewSYNFloodDetector counts TCP segments with SYN set per source IP.
func NewSYNFloodDetector(cfg config.DetectorConfig) *RateDetector {
	match := func(pkt *models.Packet) (string, int, bool, error) {
		if pkt.TCP == nil {
			return "", 0, false, nil
		}
		flags, err := pkt.TCP.FlagBits()
		if err != nil {
			return "", 0, false, fmt.Errorf("tcp flags: %w", err)
		}
		if !flags.Has(models.TCPFlagSYN) {
			return "", 0, false, nil
		}
		key, err := srcIPKey(pkt)
		if err != nil {
			return "", 0, false, err
		}
		return key, 1, true, nil
	}
	format := func(key string, total int, window time.Duration) string {
		return fmt.Sprintf("SYN flood detected from %s: %d SYN packets %s.", key, total, span(window))
	}
	return newRateDetector(AnomalySYNFlood, cfg, match, format)
}

// NewDNSExfilDetector counts DNS queries (not responses) per source IP.
func NewDNSExfilDetector(cfg config.DetectorConfig) *RateDetector {
	match := func(pkt *models.Packet) (string, int, bool, error) {
		if pkt.DNS == nil || pkt.DNS.Response {
			return "", 0, false, nil
		}
		key, err := srcIPKey(pkt)
		if err != nil {
			return "", 0, false, err
		}
		return key, 1, true, nil
	}
	format := func(key string, total int, window time.Duration) string {
		return fmt.Sprintf("DNS exfiltration detected from %s: %d DNS queries %s.", key, total, span(window))
	}
	return newRateDetector(AnomalyDNSExfil, cfg, match, format)
}

// NewBandwidthDetector sums frame bytes of IP packets per source IP.
func NewBandwidthDetector(cfg config.DetectorConfig) *RateDetector {
	match := func(pkt *models.Packet) (string, int, bool, error) {
		if pkt.IP == nil {
			return "", 0, false, nil
		}
		key, err := srcIPKey(pkt)
		if err != nil {
			return "", 0, false, err
		}
		return key, pkt.Length, true, nil
	}
	format := func(key string, total int, window time.Duration) string {
		return fmt.Sprintf("Bandwidth abuse detected from %s: %d bytes %s.", key, total, span(window))
	}
	return newRateDetector(AnomalyBandwidth, cfg, match, format)
}

// NewMalformedDetector counts packets whose claimed transport header
// cannot be read, keyed by source IP or "Unknown".
func NewMalformedDetector(cfg config.DetectorConfig) *RateDetector {
	match := func(pkt *models.Packet) (string, int, bool, error) {
		var err error
		switch {
		case pkt.TCP != nil:
			_, err = pkt.TCP.FlagBits()
		case pkt.UDP != nil:
			_, err = pkt.UDP.SourcePort()
		}
		if err == nil {
			return "", 0, false, nil
		}
		key := pkt.SrcIP()
		if key == "" {
			key = "Unknown"
		}
		return key, 1, true, nil
	}
	format := func(key string, total int, window time.Duration) string {
		return fmt.Sprintf("Malformed packets detected from %s: %d malformed packets %s.", key, total, span(window))
	}
	return newRateDetector(AnomalyMalformed, cfg, match, format)
}

// NewHTTPAbuseDetector counts TCP segments carrying an application payload per source IP.
func NewHTTPAbuseDetector(cfg config.DetectorConfig) *RateDetector {
	match := func(pkt *models.Packet) (string, int, bool, error) {
		if pkt.TCP == nil || !pkt.HasPayload {
			return "", 0, false, nil
		}
		key, err := srcIPKey(pkt)
		if err != nil {
			return "", 0, false, err
		}
		return key, 1, true, nil
	}
	format := func(key string, total int, window time.Duration) string {
		return fmt.Sprintf("Excessive HTTP requests detected from %s: %d requests %s.", key, total, span(window))
	}
	return newRateDetector(AnomalyHTTPAbuse, cfg, match, format)
}
