package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/google/gopacket/pcapgo"

	"gonetsentry/internal/config"
	"gonetsentry/internal/models"
)

// maxConsecutiveErrors bounds how long a broken handle is retried before
// Run gives up.
const maxConsecutiveErrors = 100

// Source delivers decoded packets until it runs dry or ctx is done.
type Source interface {
	// Run calls handle once per captured frame, from the calling goroutine.
	// It returns nil at end of file or on cancellation.
	Run(ctx context.Context, handle func(models.Packet)) error
	Close() error
}

// Sniffer reads raw frames from a live handle or a capture file.
type Sniffer struct {
	data     gopacket.PacketDataSource
	closer   func()
	linkType gopacket.Decoder
	what     string
	logger   *slog.Logger
}

// Open picks a file replay when a pcap file is configured and a live
// capture on iface otherwise.
func Open(iface string, cfg config.CaptureConfig, logger *slog.Logger) (*Sniffer, error) {
	var (
		s   *Sniffer
		err error
	)
	if cfg.PcapFile != "" {
		s, err = OpenFile(cfg.PcapFile)
	} else {
		s, err = OpenLive(iface, cfg.Snaplen, cfg.Promiscuous, cfg.Filter)
	}
	if err != nil {
		return nil, err
	}
	s.logger = logger
	if logger != nil {
		logger.Info("packet capture opened", "source", s.what)
	}
	return s, nil
}

// OpenLive opens iface through libpcap. Missing privileges or an unknown
// interface surface here.
func OpenLive(iface string, snaplen int32, promisc bool, filter string) (*Sniffer, error) {
	handle, err := pcap.OpenLive(iface, snaplen, promisc, 500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("open interface %s: %w", iface, err)
	}
	if filter != "" {
		if err := handle.SetBPFFilter(filter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("set BPF filter %q: %w", filter, err)
		}
	}
	return &Sniffer{
		data:     handle,
		closer:   handle.Close,
		linkType: handle.LinkType(),
		what:     "interface " + iface,
	}, nil
}

// OpenFile replays a pcap or pcapng file.
func OpenFile(path string) (*Sniffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}
	br := bufio.NewReader(f)
	magic, err := br.Peek(4)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read capture file %s: %w", path, err)
	}

	s := &Sniffer{
		closer: func() { f.Close() },
		what:   "file " + path,
	}
	// pcapng files start with the section header block type.
	if magic[0] == 0x0a && magic[1] == 0x0d && magic[2] == 0x0d && magic[3] == 0x0a {
		r, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("read pcapng %s: %w", path, err)
		}
		s.data, s.linkType = r, r.LinkType()
	} else {
		r, err := pcapgo.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("read pcap %s: %w", path, err)
		}
		s.data, s.linkType = r, r.LinkType()
	}
	return s, nil
}

// NewSniffer wraps any packet data source; frames are decoded as link.
func NewSniffer(data gopacket.PacketDataSource, link gopacket.Decoder) *Sniffer {
	if link == nil {
		link = layers.LinkTypeEthernet
	}
	return &Sniffer{data: data, linkType: link, what: "custom source"}
}

func (s *Sniffer) Run(ctx context.Context, handle func(models.Packet)) error {
	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		data, ci, err := s.data.ReadPacketData()
		switch {
		case err == nil:
			failures = 0
		case errors.Is(err, io.EOF):
			if s.logger != nil {
				s.logger.Info("capture reached end of input", "source", s.what)
			}
			return nil
		case errors.Is(err, pcap.NextErrorTimeoutExpired):
			continue
		default:
			failures++
			if failures >= maxConsecutiveErrors {
				return fmt.Errorf("capture on %s: %w", s.what, err)
			}
			if s.logger != nil {
				s.logger.Debug("capture read error", "source", s.what, "err", err)
			}
			if !backoff(ctx, 10*time.Millisecond) {
				return nil
			}
			continue
		}
		handle(Decode(data, ci, s.linkType))
	}
}

func (s *Sniffer) Close() error {
	if s.closer != nil {
		s.closer()
		s.closer = nil
	}
	return nil
}

func backoff(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
