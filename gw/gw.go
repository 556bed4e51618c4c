// SPDX-License-Identifier: Apache-2.0

// Package gw implements the IP gateway dataplane (C2): a bidirectional
// bridge between a Linux TUN device and a pair of inter-layer message
// queues to the PDCP layer, with user/bearer lookup by destination IPv4
// address.
package gw

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/openlte-go/fdd-enb/bus"
	"github.com/openlte-go/fdd-enb/logger"
)

// ErrAlreadyStarted is returned by Start on an already-started Gateway.
var ErrAlreadyStarted = errors.New("gw: already started")

// ErrCantStart is wrapped by the error Start returns when TUN device setup
// fails; that error also carries the underlying cause's message.
var ErrCantStart = errors.New("gw: cannot start")

const (
	maxMsgBytes   = 10240
	ipv4HeaderLen = 20
	ipv6HeaderLen = 40
)

// UserManager looks up a Bearer by the IPv4 address a UE was assigned on
// attach. Satisfied in cmd/fdd-enb-gw by an adapter over *enbuser.Registry.
type UserManager interface {
	BearerByIPv4(ip uint32) (Bearer, bool)
}

// Bearer is a per-UE downlink/uplink byte-message queue. Satisfied by
// *enbuser.Bearer.
type Bearer interface {
	QueueDownlink(msg []byte)
	NextDownlink() ([]byte, bool)
	FreeNextDownlink()
}

// Config holds the TUN device parameters the gateway provisions on Start.
type Config struct {
	TunDeviceName  string
	StartIPAddress net.IP
	Netmask        net.IPMask
}

// Gateway owns the TUN device and the inbound/outbound message queues that
// bridge it to PDCP. started is guarded by a dedicated mutex scoped tightly
// around the flag flip, never held across the RX loop or channel ops, so
// Stop can never observe the double-unlock hazard of a scoped lock that is
// also unlocked manually mid-scope.
type Gateway struct {
	cfg     Config
	users   UserManager
	toPdcp  *bus.Queue
	link    netlink.Link
	tunFile fdCloser

	startMu sync.Mutex
	started atomic.Bool

	doneCh chan struct{}
}

// fdCloser is satisfied by *os.File; kept as an interface so tests can
// stand in a fake without opening a real TUN device.
type fdCloser interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// New returns a Gateway that will provision a TUN device per cfg on Start,
// forwarding uplink packets through users and downlink GwDataReady events
// drained from fromPdcp to the device, and posting PdcpDataSduReady events
// on toPdcp.
func New(cfg Config, users UserManager, toPdcp *bus.Queue) *Gateway {
	return &Gateway{cfg: cfg, users: users, toPdcp: toPdcp}
}

// IsStarted reports whether the gateway's RX loop is currently running.
func (g *Gateway) IsStarted() bool {
	return g.started.Load()
}

// Start is idempotent against an already-started gateway: it opens the TUN
// device, binds the configured IPv4 address with the configured netmask,
// brings the interface up, attaches a receive callback on fromPdcp for
// GwDataReady events, and spawns the RX goroutine. No I/O occurs before
// Start succeeds.
func (g *Gateway) Start(fromPdcp *bus.Queue) error {
	g.startMu.Lock()
	if g.started.Load() {
		g.startMu.Unlock()
		return ErrAlreadyStarted
	}

	tunFile, link, err := openTunFn(g.cfg)
	if err != nil {
		g.startMu.Unlock()
		return fmt.Errorf("%w: %v", ErrCantStart, err)
	}

	g.tunFile = tunFile
	g.link = link
	g.doneCh = make(chan struct{})
	g.started.Store(true)
	g.startMu.Unlock()

	fromPdcp.AttachRx(g.handlePdcpMsg)
	go g.rxLoop()
	return nil
}

// Stop is idempotent. It flips started under startMu only long enough to
// read and clear it, then closes the TUN device, which ends the RX
// goroutine's Read, and waits for that goroutine to exit. The flag flip never holds startMu
// across the RX loop's exit, so there is nothing to double-unlock.
func (g *Gateway) Stop() {
	g.startMu.Lock()
	wasStarted := g.started.Load()
	g.started.Store(false)
	g.startMu.Unlock()

	if !wasStarted {
		return
	}

	// Closing the fd is the cooperative-cancellation signal: it unblocks
	// the RX goroutine's in-flight Read immediately rather than leaving it
	// parked in a blocking syscall until the next packet arrives.
	g.tunFile.Close()
	<-g.doneCh
}

// openTunFn provisions the TUN device; overridden in tests to avoid
// requiring CAP_NET_ADMIN and a real kernel TUN driver.
var openTunFn = openTun

func openTun(cfg Config) (fdCloser, netlink.Link, error) {
	if len(cfg.TunDeviceName) >= unix.IFNAMSIZ {
		return nil, nil, fmt.Errorf("TUN device name %q exceeds IFNAMSIZ (%d)", cfg.TunDeviceName, unix.IFNAMSIZ)
	}

	ones, _ := cfg.Netmask.Size()
	tuntap := &netlink.Tuntap{
		LinkAttrs: netlink.LinkAttrs{Name: cfg.TunDeviceName},
		Mode:      netlink.TUNTAP_MODE_TUN,
		Flags:     netlink.TUNTAP_NO_PI,
	}
	if err := netlink.LinkAdd(tuntap); err != nil {
		return nil, nil, fmt.Errorf("add TUN link: %w", err)
	}
	addr := &netlink.Addr{IPNet: &net.IPNet{IP: cfg.StartIPAddress, Mask: net.CIDRMask(ones, 32)}}
	if err := netlink.AddrAdd(tuntap, addr); err != nil {
		return nil, nil, fmt.Errorf("add TUN address: %w", err)
	}
	if err := netlink.LinkSetUp(tuntap); err != nil {
		return nil, nil, fmt.Errorf("bring up TUN link: %w", err)
	}
	if len(tuntap.Fds) == 0 {
		return nil, nil, errors.New("TUN device opened no file descriptors")
	}
	return tuntap.Fds[0], tuntap, nil
}

// rxLoop reads reassembled IP packets off the TUN device, looks up the
// owning bearer by destination IPv4 address, and queues the packet for
// PDCP. It treats Stop's fd close as a normal exit: a Read that returns
// ≤0 or an error, for any reason, ends the loop without half-enqueuing any
// packet — the bearer lookup and enqueue below run to completion or not at
// all within a single iteration, never straddling the Read that wakes them.
func (g *Gateway) rxLoop() {
	defer close(g.doneCh)

	buf := make([]byte, maxMsgBytes)
	idx := 0

	for {
		n, err := g.tunFile.Read(buf[idx:])
		if n <= 0 || err != nil {
			return
		}
		total := idx + n

		if buf[0]>>4 == 6 {
			if total < ipv6HeaderLen {
				idx = total
				continue
			}
			payloadLen := int(binary.BigEndian.Uint16(buf[4:6]))
			if total == ipv6HeaderLen+payloadLen {
				idx = 0
			} else {
				idx = total
			}
			continue
		}

		if total < ipv4HeaderLen {
			idx = n
			continue
		}
		totLen := int(binary.BigEndian.Uint16(buf[2:4]))
		if totLen != total {
			idx = n
			continue
		}

		pkt := make([]byte, total)
		copy(pkt, buf[:total])
		dst := binary.BigEndian.Uint32(pkt[16:20])

		if bearer, ok := g.users.BearerByIPv4(dst); ok {
			bearer.QueueDownlink(pkt)
			g.toPdcp.Send(bus.Message{Type: bus.PdcpDataSduReady, DestLayer: bus.LayerPdcp, Body: bearer})
		} else {
			logger.GwLog.Debugf("no user for destination %s, dropping packet", net.IPv4(byte(dst>>24), byte(dst>>16), byte(dst>>8), byte(dst)))
		}
		idx = 0
	}
}

// handlePdcpMsg drains one queued downlink byte message per GwDataReady
// event and writes it to the TUN device. A short write is logged but does
// not tear the gateway down.
func (g *Gateway) handlePdcpMsg(msg bus.Message) {
	if msg.Type != bus.GwDataReady {
		return
	}
	bearer, ok := msg.Body.(Bearer)
	if !ok {
		return
	}

	b, ok := bearer.NextDownlink()
	if !ok {
		return
	}
	n, err := g.tunFile.Write(b)
	if err != nil {
		logger.GwLog.Errorw("TUN write failed", "error", err)
	} else if n != len(b) {
		logger.GwLog.Errorw("short TUN write", "wrote", n, "want", len(b))
	}
	bearer.FreeNextDownlink()
}
