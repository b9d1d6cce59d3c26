package source

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/rfmapper/internal/mapper/core"
	"github.com/autopeer-io/rfmapper/pkg/log"
)

const maxDatagram = 64 * 1024

// readBackoff paces retries after read errors that are not caused by Close.
func readBackoff() wait.Backoff {
	return wait.Backoff{
		Duration: 10 * time.Millisecond,
		Factor:   2,
		Steps:    8,
		Cap:      time.Second,
	}
}

// UDPConfig configures a multicast source.
type UDPConfig struct {
	Kind core.SourceKind

	// Interface is the network interface the group is joined on. Required.
	Interface string

	// Group is the IPv4 multicast group and port.
	Group string

	MaxAge time.Duration
	Clock  clock.PassiveClock
}

// UDPSource feeds JSON datagrams into a Holder.
type UDPSource struct {
	*Holder

	conn   net.PacketConn
	logger log.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewUDPSource joins the multicast group on the configured interface. A
// missing interface is a configuration error wrapping core.ErrConfigurationMissing.
func NewUDPSource(cfg UDPConfig) (*UDPSource, error) {
	logger := log.WithName("source").WithValues("source", cfg.Kind)

	if cfg.Interface == "" {
		err := fmt.Errorf("%w: network interface of the %s source", core.ErrConfigurationMissing, cfg.Kind)
		logger.Error(err, "Network interface is not set in the configuration")
		return nil, err
	}

	ifi, err := net.InterfaceByName(cfg.Interface)
	if err != nil {
		return nil, fmt.Errorf("network interface %q: %w", cfg.Interface, err)
	}
	group, err := net.ResolveUDPAddr("udp4", cfg.Group)
	if err != nil {
		return nil, fmt.Errorf("multicast group %q: %w", cfg.Group, err)
	}
	conn, err := net.ListenMulticastUDP("udp4", ifi, group)
	if err != nil {
		return nil, fmt.Errorf("failed to join %s on %s: %w", cfg.Group, cfg.Interface, err)
	}
	if err := conn.SetReadBuffer(1 << 20); err != nil {
		logger.Debug("Failed to enlarge read buffer", "error", err.Error())
	}

	logger.Info("Joined multicast group", "group", cfg.Group, "interface", cfg.Interface)
	return newPacketSource(conn, cfg.MaxAge, cfg.Clock, logger), nil
}

// newPacketSource starts reading conn until Close.
func newPacketSource(conn net.PacketConn, maxAge time.Duration, clk clock.PassiveClock, logger log.Logger) *UDPSource {
	s := &UDPSource{
		Holder: NewHolder(maxAge, clk),
		conn:   conn,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.read()
	return s
}

func (s *UDPSource) read() {
	defer close(s.done)

	buf := make([]byte, maxDatagram)
	backoff := readBackoff()
	for {
		n, from, err := s.conn.ReadFrom(buf)
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			d := backoff.Step()
			s.logger.Debug("Read failed", "error", err.Error(), "retryIn", d)
			select {
			case <-s.stop:
				return
			case <-time.After(d):
			}
			continue
		}
		backoff = readBackoff()

		sample, err := decodeSample(buf[:n])
		if err != nil {
			s.logger.Debug("Dropping malformed datagram", "from", from.String(), "error", err.Error())
			continue
		}
		s.Update(sample)
	}
}

// Close leaves the group and waits for the reader to exit.
func (s *UDPSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stop)
		err = s.conn.Close()
		<-s.done
	})
	return err
}
