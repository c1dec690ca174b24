package analysis

import (
	"errors"
	"fmt"
	"time"

	"gonetsentry/internal/models"
)

// ARPSpoofDetector remembers the last hardware address each IP claimed in
// an ARP reply and alerts whenever it changes.
type ARPSpoofDetector struct {
	table map[string]string // IP -> MAC
}

func NewARPSpoofDetector() *ARPSpoofDetector {
	return &ARPSpoofDetector{table: make(map[string]string)}
}

func (d *ARPSpoofDetector) Type() AnomalyType {
	return AnomalyARPSpoofing
}

func (d *ARPSpoofDetector) Inspect(pkt *models.Packet, now time.Time) (*Alert, error) {
	if pkt.ARP == nil || pkt.ARP.Operation != models.ARPReply {
		return nil, nil
	}
	if pkt.ARP.SenderIP == nil || len(pkt.ARP.SenderMAC) == 0 {
		return nil, errors.New("arp reply without sender addresses")
	}
	ip := pkt.ARP.SenderIP.String()
	mac := pkt.ARP.SenderMAC.String()

	var alert *Alert
	if prev, ok := d.table[ip]; ok && prev != mac {
		alert = &Alert{
			Type:      AnomalyARPSpoofing,
			Source:    ip,
			Count:     1,
			Message:   fmt.Sprintf("ARP spoofing detected: IP %s is-at %s (was %s)", ip, mac, prev),
			Timestamp: now,
		}
	}
	d.table[ip] = mac
	return alert, nil
}

// Lookup returns the last MAC recorded for ip.
func (d *ARPSpoofDetector) Lookup(ip string) (string, bool) {
	mac, ok := d.table[ip]
	return mac, ok
}
