package capture

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"gonetsentry/internal/models"
)

// Decode parses one raw frame into the packet view the detectors read.
func Decode(data []byte, ci gopacket.CaptureInfo, link gopacket.Decoder) models.Packet {
	gp := gopacket.NewPacket(data, link, gopacket.Default)
	pkt := FromGopacket(gp)
	pkt.Timestamp = ci.Timestamp
	if ci.Length > 0 {
		pkt.Length = ci.Length
	}
	return pkt
}

// FromGopacket converts an already decoded gopacket.Packet.
func FromGopacket(gp gopacket.Packet) models.Packet {
	pkt := models.Packet{Length: len(gp.Data())}
	if md := gp.Metadata(); md != nil {
		pkt.Timestamp = md.Timestamp
		if md.Length > 0 {
			pkt.Length = md.Length
		}
	}

	if eth, ok := gp.Layer(layers.LayerTypeEthernet).(*layers.Ethernet); ok {
		pkt.Link = &models.Link{SrcMAC: eth.SrcMAC, DstMAC: eth.DstMAC}
	}

	if arp, ok := gp.Layer(layers.LayerTypeARP).(*layers.ARP); ok {
		pkt.ARP = &models.ARP{
			Operation: arp.Operation,
			SenderIP:  arp.SourceProtAddress,
			SenderMAC: arp.SourceHwAddress,
		}
	}

	claimed, fragment := transportClaim(gp)
	if ip4, ok := gp.Layer(layers.LayerTypeIPv4).(*layers.IPv4); ok {
		pkt.IP = &models.IP{Src: ip4.SrcIP, Dst: ip4.DstIP}
	} else if ip6, ok := gp.Layer(layers.LayerTypeIPv6).(*layers.IPv6); ok {
		pkt.IP = &models.IP{Src: ip6.SrcIP, Dst: ip6.DstIP}
	}

	// gopacket stops at the fragment layer, so the transport header of a
	// first fragment is decoded from the fragment payload.
	transport := gp
	if fragment != nil {
		transport = gopacket.NewPacket(fragment, claimed.LayerType(), gopacket.Default)
	}

	if tcp, ok := transport.Layer(layers.LayerTypeTCP).(*layers.TCP); ok {
		pkt.TCP = &models.TCP{
			SrcPort: uint16(tcp.SrcPort),
			DstPort: uint16(tcp.DstPort),
			Flags:   tcpFlags(tcp),
		}
	} else if claimed == layers.IPProtocolTCP {
		pkt.TCP = &models.TCP{Truncated: true}
	}

	if udp, ok := transport.Layer(layers.LayerTypeUDP).(*layers.UDP); ok {
		pkt.UDP = &models.UDP{SrcPort: uint16(udp.SrcPort), DstPort: uint16(udp.DstPort)}
	} else if claimed == layers.IPProtocolUDP {
		pkt.UDP = &models.UDP{Truncated: true}
	}

	if icmp, ok := transport.Layer(layers.LayerTypeICMPv4).(*layers.ICMPv4); ok {
		pkt.ICMP = &models.ICMP{Type: icmp.TypeCode.Type(), Code: icmp.TypeCode.Code()}
	} else if icmp6, ok := transport.Layer(layers.LayerTypeICMPv6).(*layers.ICMPv6); ok {
		pkt.ICMP = &models.ICMP{Type: icmp6.TypeCode.Type(), Code: icmp6.TypeCode.Code(), V6: true}
	}

	if dhcp, ok := transport.Layer(layers.LayerTypeDHCPv4).(*layers.DHCPv4); ok {
		pkt.DHCP = &models.DHCP{
			Operation:   uint8(dhcp.Operation),
			MessageType: dhcpMessageType(dhcp),
			ClientMAC:   dhcp.ClientHWAddr,
		}
	}

	if dns, ok := transport.Layer(layers.LayerTypeDNS).(*layers.DNS); ok {
		pkt.DNS = &models.DNS{Response: dns.QR}
	}

	pkt.HasPayload = transport.Layer(gopacket.LayerTypePayload) != nil
	return pkt
}

// transportClaim returns the transport protocol the network headers
// announce, following IPv6 extension headers. Non-first fragments carry
// no transport header and claim nothing. For a first fragment it also
// returns the bytes that start with the transport header.
func transportClaim(gp gopacket.Packet) (layers.IPProtocol, []byte) {
	var (
		claimed  layers.IPProtocol
		fragment []byte
	)
	for _, l := range gp.Layers() {
		switch l := l.(type) {
		case *layers.IPv4:
			claimed, fragment = 0, nil
			if l.FragOffset != 0 {
				continue
			}
			claimed = l.Protocol
			if l.Flags&layers.IPv4MoreFragments != 0 {
				fragment = l.Payload
			}
		case *layers.IPv6:
			claimed, fragment = l.NextHeader, nil
		case *layers.IPv6HopByHop:
			claimed = l.NextHeader
		case *layers.IPv6Destination:
			claimed = l.NextHeader
		case *layers.IPv6Routing:
			claimed = l.NextHeader
		case *layers.IPv6Fragment:
			if l.FragmentOffset != 0 {
				return 0, nil
			}
			claimed = l.NextHeader
			if l.MoreFragments {
				fragment = l.Payload
			}
		}
	}
	return claimed, fragment
}

func tcpFlags(tcp *layers.TCP) models.TCPFlags {
	var f models.TCPFlags
	set := func(on bool, bit models.TCPFlags) {
		if on {
			f |= bit
		}
	}
	set(tcp.FIN, models.TCPFlagFIN)
	set(tcp.SYN, models.TCPFlagSYN)
	set(tcp.RST, models.TCPFlagRST)
	set(tcp.PSH, models.TCPFlagPSH)
	set(tcp.ACK, models.TCPFlagACK)
	set(tcp.URG, models.TCPFlagURG)
	set(tcp.ECE, models.TCPFlagECE)
	set(tcp.CWR, models.TCPFlagCWR)
	set(tcp.NS, models.TCPFlagNS)
	return f
}

func dhcpMessageType(dhcp *layers.DHCPv4) uint8 {
	for _, opt := range dhcp.Options {
		if opt.Type == layers.DHCPOptMessageType && len(opt.Data) > 0 {
			return opt.Data[0]
		}
	}
	return 0
}
