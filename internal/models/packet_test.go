package models

import (
	"net"
	"testing"
)

func TestProtocol(t *testing.T) {
	ip := &IP{Src: net.ParseIP("10.0.0.5")}
	cases := []struct {
		pkt  Packet
		want string
	}{
		{Packet{IP: ip, UDP: &UDP{}, DHCP: &DHCP{}}, "DHCP"},
		{Packet{IP: ip, UDP: &UDP{}, DNS: &DNS{}}, "DNS"},
		{Packet{ARP: &ARP{}}, "ARP"},
		{Packet{IP: ip, ICMP: &ICMP{}}, "ICMP"},
		{Packet{IP: ip, TCP: &TCP{}}, "TCP"},
		{Packet{IP: ip, UDP: &UDP{}}, "UDP"},
		{Packet{IP: ip}, "IP"},
		{Packet{}, "OTHER"},
	}
	for _, tc := range cases {
		if got := tc.pkt.Protocol(); got != tc.want {
			t.Errorf("Protocol() = %s, want %s", got, tc.want)
		}
	}
}

func TestAddresses(t *testing.T) {
	var empty Packet
	if empty.SrcIP() != "" || empty.SrcMAC() != "" {
		t.Error("empty packet reported addresses")
	}
	mac, _ := net.ParseMAC("02:00:00:00:00:05")
	pkt := Packet{IP: &IP{Src: net.ParseIP("10.0.0.5")}, Link: &Link{SrcMAC: mac}}
	if pkt.SrcIP() != "10.0.0.5" || pkt.SrcMAC() != "02:00:00:00:00:05" {
		t.Errorf("addresses = %s/%s", pkt.SrcIP(), pkt.SrcMAC())
	}
}

func TestTruncatedAccessors(t *testing.T) {
	tcp := &TCP{DstPort: 80, Flags: TCPFlagSYN | TCPFlagACK}
	if flags, err := tcp.FlagBits(); err != nil || !flags.Has(TCPFlagSYN) || flags.Has(TCPFlagFIN) {
		t.Errorf("flags = %b err=%v", flags, err)
	}
	tcp.Truncated = true
	if _, err := tcp.DestinationPort(); err != ErrTruncated {
		t.Errorf("err = %v, want ErrTruncated", err)
	}
	udp := &UDP{SrcPort: 68, Truncated: true}
	if _, err := udp.SourcePort(); err != ErrTruncated {
		t.Errorf("err = %v, want ErrTruncated", err)
	}
}
