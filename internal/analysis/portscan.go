package analysis

import (
	"fmt"
	"time"

	"gonetsentry/internal/config"
	"gonetsentry/internal/models"
)

// PortScanDetector collects the distinct TCP destination ports each source
// IP touches. The set never decays; it only empties on alert.
type PortScanDetector struct {
	threshold    int
	resetOnAlert bool
	ports        map[string]map[uint16]struct{}
}

func NewPortScanDetector(cfg config.DetectorConfig) *PortScanDetector {
	return &PortScanDetector{
		threshold:    cfg.Threshold,
		resetOnAlert: cfg.ResetOnAlert,
		ports:        make(map[string]map[uint16]struct{}),
	}
}

func (d *PortScanDetector) Type() AnomalyType {
	return AnomalyPortScan
}

func (d *PortScanDetector) Inspect(pkt *models.Packet, now time.Time) (*Alert, error) {
	if pkt.TCP == nil {
		return nil, nil
	}
	port, err := pkt.TCP.DestinationPort()
	if err != nil {
		return nil, fmt.Errorf("tcp destination port: %w", err)
	}
	src, err := srcIPKey(pkt)
	if err != nil {
		return nil, err
	}

	seen, ok := d.ports[src]
	if !ok {
		seen = make(map[uint16]struct{})
		d.ports[src] = seen
	}
	seen[port] = struct{}{}

	if len(seen) <= d.threshold {
		return nil, nil
	}
	alert := &Alert{
		Type:      AnomalyPortScan,
		Source:    src,
		Count:     len(seen),
		Message:   fmt.Sprintf("Port scan detected from %s: accessed %d unique ports.", src, len(seen)),
		Timestamp: now,
	}
	if d.resetOnAlert {
		delete(d.ports, src)
	}
	return alert, nil
}

// Tracked returns how many distinct ports src has touched since its last alert.
func (d *PortScanDetector) Tracked(src string) int {
	return len(d.ports[src])
}
