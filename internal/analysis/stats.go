package analysis

import (
	"sort"
	"sync"
	"time"

	"gonetsentry/internal/models"
)

// IPStat holds stats for a single IP.
type IPStat struct {
	IP    string
	Bytes int
}

// ProtocolStat holds stats for a single protocol.
type ProtocolStat struct {
	Protocol string
	Count    int64
}

// AlertStat holds the number of alerts raised for one anomaly type.
type AlertStat struct {
	Type  AnomalyType
	Count int64
}

// TrafficStats tracks network statistics for the dashboard. It is written
// by the dispatch loop and read from the UI goroutine.
type TrafficStats struct {
	mu             sync.Mutex
	totalBytes     int64
	totalPackets   int64
	windowBytes    int64
	windowPackets  int64
	lastTick       time.Time
	ipBytes        map[string]int
	protocolCounts map[string]int64
	alertCounts    map[AnomalyType]int64
	detectorErrors int64
}

// NewTrafficStats creates a new TrafficStats instance.
func NewTrafficStats() *TrafficStats {
	return &TrafficStats{
		lastTick:       time.Now(),
		ipBytes:        make(map[string]int),
		protocolCounts: make(map[string]int64),
		alertCounts:    make(map[AnomalyType]int64),
	}
}

// ProcessPacket updates stats with a new packet.
func (s *TrafficStats) ProcessPacket(pkt *models.Packet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalBytes += int64(pkt.Length)
	s.totalPackets++
	s.windowBytes += int64(pkt.Length)
	s.windowPackets++

	if src := pkt.SrcIP(); src != "" {
		s.ipBytes[src] += pkt.Length
	}
	s.protocolCounts[serviceLabel(pkt)]++
}

// RecordAlert counts an alert by type.
func (s *TrafficStats) RecordAlert(alert Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alertCounts[alert.Type]++
}

// RecordError counts a detector failure.
func (s *TrafficStats) RecordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detectorErrors++
}

// GetRates returns the bandwidth (bps) and packet rate (pps) since the last call.
func (s *TrafficStats) GetRates() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	duration := now.Sub(s.lastTick).Seconds()
	if duration == 0 {
		return 0, 0
	}

	// Bytes * 8 = Bits
	bps := (float64(s.windowBytes) * 8) / duration
	pps := float64(s.windowPackets) / duration

	s.windowBytes = 0
	s.windowPackets = 0
	s.lastTick = now

	return bps, pps
}

// Totals returns the packets and bytes seen so far and the detector error count.
func (s *TrafficStats) Totals() (packets, bytes, errCount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPackets, s.totalBytes, s.detectorErrors
}

// GetTopTalkers returns the top N IPs by volume.
func (s *TrafficStats) GetTopTalkers(limit int) []IPStat {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make([]IPStat, 0, len(s.ipBytes))
	for ip, bytes := range s.ipBytes {
		stats = append(stats, IPStat{IP: ip, Bytes: bytes})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Bytes == stats[j].Bytes {
			return stats[i].IP < stats[j].IP
		}
		return stats[i].Bytes > stats[j].Bytes
	})

	if len(stats) > limit {
		return stats[:limit]
	}
	return stats
}

// GetProtocolStats returns the protocol distribution.
func (s *TrafficStats) GetProtocolStats() []ProtocolStat {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make([]ProtocolStat, 0, len(s.protocolCounts))
	for proto, count := range s.protocolCounts {
		stats = append(stats, ProtocolStat{Protocol: proto, Count: count})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Protocol < stats[j].Protocol
		}
		return stats[i].Count > stats[j].Count
	})

	return stats
}

// GetAlertStats returns alert counts by type, most frequent first.
func (s *TrafficStats) GetAlertStats() []AlertStat {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make([]AlertStat, 0, len(s.alertCounts))
	for kind, count := range s.alertCounts {
		stats = append(stats, AlertStat{Type: kind, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Type < stats[j].Type
		}
		return stats[i].Count > stats[j].Count
	})
	return stats
}
