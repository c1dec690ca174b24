package models

import (
	"errors"
	"net"
	"time"
)

// ErrTruncated is returned when a layer is claimed by the packet but its
// header could not be decoded far enough to read the requested field.
var ErrTruncated = errors.New("layer header truncated")

// ARP operation codes.
const (
	ARPRequest uint16 = 1
	ARPReply   uint16 = 2 // "is-at"
)

// DHCP BOOTP operations and the message types we care about.
const (
	DHCPOpRequest uint8 = 1
	DHCPOpReply   uint8 = 2

	DHCPMsgDiscover uint8 = 1
	DHCPMsgOffer    uint8 = 2
	DHCPMsgRequest  uint8 = 3
)

// TCPFlags is a bitmask of TCP control bits.
type TCPFlags uint16

const (
	TCPFlagFIN TCPFlags = 1 << iota
	TCPFlagSYN
	TCPFlagRST
	TCPFlagPSH
	TCPFlagACK
	TCPFlagURG
	TCPFlagECE
	TCPFlagCWR
	TCPFlagNS
)

// Has reports whether every bit in f is set.
func (t TCPFlags) Has(f TCPFlags) bool {
	return t&f == f
}

// Packet is a read-only view over the decoded layers of one captured frame.
// Nil layer pointers mean the layer is absent.
type Packet struct {
	Timestamp time.Time
	Length    int

	Link *Link
	ARP  *ARP
	IP   *IP
	TCP  *TCP
	UDP  *UDP
	ICMP *ICMP
	DHCP *DHCP
	DNS  *DNS

	// HasPayload is set when the frame carries an undecoded application payload.
	HasPayload bool
}

// Link holds the hardware addresses of the link layer.
type Link struct {
	SrcMAC net.HardwareAddr
	DstMAC net.HardwareAddr
}

// ARP holds the sender side of an ARP message.
type ARP struct {
	Operation uint16
	SenderIP  net.IP
	SenderMAC net.HardwareAddr
}

// IP holds the network layer addresses (v4 or v6).
type IP struct {
	Src net.IP
	Dst net.IP
}

// TCP holds a TCP header. Truncated is set when the IP header announces
// TCP but the segment header could not be decoded.
type TCP struct {
	SrcPort   uint16
	DstPort   uint16
	Flags     TCPFlags
	Truncated bool
}

// FlagBits returns the control bits of the segment.
func (t *TCP) FlagBits() (TCPFlags, error) {
	if t.Truncated {
		return 0, ErrTruncated
	}
	return t.Flags, nil
}

// DestinationPort returns the destination port of the segment.
func (t *TCP) DestinationPort() (uint16, error) {
	if t.Truncated {
		return 0, ErrTruncated
	}
	return t.DstPort, nil
}

// UDP holds a UDP header, Truncated as for TCP.
type UDP struct {
	SrcPort   uint16
	DstPort   uint16
	Truncated bool
}

// SourcePort returns the source port of the datagram.
func (u *UDP) SourcePort() (uint16, error) {
	if u.Truncated {
		return 0, ErrTruncated
	}
	return u.SrcPort, nil
}

// ICMP marks an ICMPv4 or ICMPv6 message.
type ICMP struct {
	Type uint8
	Code uint8
	V6   bool
}

// DHCP holds the BOOTP operation, message type option and client hardware address.
type DHCP struct {
	Operation   uint8
	MessageType uint8
	ClientMAC   net.HardwareAddr
}

// DNS marks a DNS message; Response is the QR bit.
type DNS struct {
	Response bool
}

// SrcIP returns the network source address as a string, or "" without an IP layer.
func (p *Packet) SrcIP() string {
	if p.IP == nil || p.IP.Src == nil {
		return ""
	}
	return p.IP.Src.String()
}

// SrcMAC returns the link source address as a string, or "" without a link layer.
func (p *Packet) SrcMAC() string {
	if p.Link == nil || len(p.Link.SrcMAC) == 0 {
		return ""
	}
	return p.Link.SrcMAC.String()
}

// Protocol returns the highest well-known protocol name found in the packet.
func (p *Packet) Protocol() string {
	switch {
	case p.DHCP != nil:
		return "DHCP"
	case p.DNS != nil:
		return "DNS"
	case p.ARP != nil:
		return "ARP"
	case p.ICMP != nil:
		return "ICMP"
	case p.TCP != nil:
		return "TCP"
	case p.UDP != nil:
		return "UDP"
	case p.IP != nil:
		return "IP"
	}
	return "OTHER"
}
