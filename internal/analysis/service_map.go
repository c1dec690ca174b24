package analysis

import "gonetsentry/internal/models"

var commonPorts = map[uint16]string{
	20:   "FTP-DATA",
	21:   "FTP",
	22:   "SSH",
	23:   "Telnet",
	25:   "SMTP",
	53:   "DNS",
	67:   "DHCP",
	68:   "DHCP",
	80:   "HTTP",
	110:  "POP3",
	123:  "NTP",
	143:  "IMAP",
	161:  "SNMP",
	443:  "HTTPS",
	3306: "MySQL",
	5432: "PostgreSQL",
	6379: "Redis",
	8080: "HTTP-Alt",
}

// GetServiceName returns the common name for a port, or "" when unknown.
func GetServiceName(port uint16) string {
	return commonPorts[port]
}

// serviceLabel names a packet by the well-known service it targets,
// falling back to its protocol.
func serviceLabel(pkt *models.Packet) string {
	proto := pkt.Protocol()
	var port uint16
	switch {
	case pkt.TCP != nil && !pkt.TCP.Truncated:
		port = pkt.TCP.DstPort
	case pkt.UDP != nil && !pkt.UDP.Truncated:
		port = pkt.UDP.DstPort
	default:
		return proto
	}
	if name := GetServiceName(port); name != "" && (proto == "TCP" || proto == "UDP") {
		return name
	}
	return proto
}
