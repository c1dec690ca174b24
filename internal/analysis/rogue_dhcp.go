package analysis

import (
	"fmt"
	"time"

	"gonetsentry/internal/config"
	"gonetsentry/internal/models"
)

// RogueDHCPDetector tracks the servers that sent a DHCP OFFER within the
// window. More active servers than the threshold means someone besides
// the legitimate server is handing out leases.
type RogueDHCPDetector struct {
	threshold    int
	window       time.Duration
	resetOnAlert bool
	servers      map[string]time.Time
}

func NewRogueDHCPDetector(cfg config.DetectorConfig) *RogueDHCPDetector {
	window := cfg.Window
	if window <= 0 {
		window = time.Hour
	}
	return &RogueDHCPDetector{
		threshold:    cfg.Threshold,
		window:       window,
		resetOnAlert: cfg.ResetOnAlert,
		servers:      make(map[string]time.Time),
	}
}

func (d *RogueDHCPDetector) Type() AnomalyType {
	return AnomalyRogueDHCP
}

func (d *RogueDHCPDetector) Inspect(pkt *models.Packet, now time.Time) (*Alert, error) {
	if pkt.DHCP == nil || pkt.DHCP.MessageType != models.DHCPMsgOffer {
		return nil, nil
	}
	server, err := srcIPKey(pkt)
	if err != nil {
		return nil, err
	}
	d.servers[server] = now

	cutoff := now.Add(-d.window)
	for ip, seen := range d.servers {
		if seen.Before(cutoff) {
			delete(d.servers, ip)
		}
	}

	active := len(d.servers)
	if active <= d.threshold {
		return nil, nil
	}
	alert := &Alert{
		Type:      AnomalyRogueDHCP,
		Source:    server,
		Count:     active,
		Message:   fmt.Sprintf("Rogue DHCP server detected: %s (%d servers offering leases)", server, active),
		Timestamp: now,
	}
	if d.resetOnAlert {
		clear(d.servers)
	}
	return alert, nil
}

// Active returns the number of servers currently considered active.
func (d *RogueDHCPDetector) Active() int {
	return len(d.servers)
}
