// SPDX-License-Identifier: Apache-2.0

package gw

import (
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/vishvananda/netlink"

	"github.com/openlte-go/fdd-enb/bus"
)

// fakeTun is an in-memory fdCloser standing in for a real TUN device: Write
// appends to a log the test can inspect, and Read serves queued packets
// (optionally split into fragments) or blocks until one is pushed or the
// fake is closed.
type fakeTun struct {
	mu       sync.Mutex
	closed   bool
	pending  [][]byte
	ready    chan struct{}
	closedCh chan struct{}

	writes [][]byte
}

func newFakeTun() *fakeTun {
	return &fakeTun{ready: make(chan struct{}, 1), closedCh: make(chan struct{})}
}

func (f *fakeTun) push(pkt []byte) {
	f.mu.Lock()
	f.pending = append(f.pending, pkt)
	f.mu.Unlock()
	select {
	case f.ready <- struct{}{}:
	default:
	}
}

func (f *fakeTun) Read(p []byte) (int, error) {
	for {
		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return 0, io.EOF
		}
		if len(f.pending) > 0 {
			pkt := f.pending[0]
			f.pending = f.pending[1:]
			f.mu.Unlock()
			n := copy(p, pkt)
			return n, nil
		}
		f.mu.Unlock()

		select {
		case <-f.ready:
		case <-f.closedCh:
			return 0, io.EOF
		case <-time.After(time.Second):
			return 0, errors.New("fakeTun: read timed out")
		}
	}
}

func (f *fakeTun) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(p))
	copy(cp, p)
	f.writes = append(f.writes, cp)
	return len(p), nil
}

func (f *fakeTun) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.closedCh)
	}
	return nil
}

type fakeBearer struct {
	mu    sync.Mutex
	queue [][]byte
}

func (b *fakeBearer) QueueDownlink(msg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = append(b.queue, msg)
}

func (b *fakeBearer) NextDownlink() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return nil, false
	}
	return b.queue[0], true
}

func (b *fakeBearer) FreeNextDownlink() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) > 0 {
		b.queue = b.queue[1:]
	}
}

type fakeUserManager struct {
	byIP map[uint32]*fakeBearer
}

func (m *fakeUserManager) BearerByIPv4(ip uint32) (Bearer, bool) {
	b, ok := m.byIP[ip]
	return b, ok
}

func buildIPv4Packet(dst uint32, payload []byte) []byte {
	totLen := 20 + len(payload)
	pkt := make([]byte, totLen)
	pkt[0] = 0x45
	binary.BigEndian.PutUint16(pkt[2:4], uint16(totLen))
	binary.BigEndian.PutUint32(pkt[16:20], dst)
	copy(pkt[20:], payload)
	return pkt
}

func TestGatewayStartStopIdempotent(t *testing.T) {
	tun := newFakeTun()
	orig := openTunFn
	openTunFn = func(Config) (fdCloser, netlink.Link, error) {
		return tun, nil, nil
	}
	t.Cleanup(func() { openTunFn = orig })

	users := &fakeUserManager{byIP: map[uint32]*fakeBearer{}}
	toPdcp := bus.NewQueue()
	fromPdcp := bus.NewQueue()
	g := New(Config{}, users, toPdcp)

	if err := g.Start(fromPdcp); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !g.IsStarted() {
		t.Fatal("IsStarted = false after Start")
	}
	if err := g.Start(fromPdcp); err != ErrAlreadyStarted {
		t.Fatalf("second Start err = %v, want ErrAlreadyStarted", err)
	}

	g.Stop()
	if g.IsStarted() {
		t.Fatal("IsStarted = true after Stop")
	}
	g.Stop() // idempotent, must not block or panic
}

func TestGatewayRxLoopReassemblesAndQueues(t *testing.T) {
	tun := newFakeTun()
	bearer := &fakeBearer{}
	users := &fakeUserManager{byIP: map[uint32]*fakeBearer{0x0A000105: bearer}}
	toPdcp := bus.NewQueue()
	received := make(chan bus.Message, 4)
	toPdcp.AttachRx(func(m bus.Message) { received <- m })

	g := &Gateway{cfg: Config{}, users: users, toPdcp: toPdcp, tunFile: tun, doneCh: make(chan struct{})}
	g.started.Store(true)
	go g.rxLoop()

	pkt := buildIPv4Packet(0x0A000105, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	tun.push(pkt)

	select {
	case m := <-received:
		if m.Type != bus.PdcpDataSduReady {
			t.Fatalf("message type = %v, want PdcpDataSduReady", m.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for PdcpDataSduReady")
	}

	queued, ok := bearer.NextDownlink()
	if !ok {
		t.Fatal("bearer has no queued packet")
	}
	if len(queued) != len(pkt) {
		t.Fatalf("queued packet length = %d, want %d", len(queued), len(pkt))
	}

	tun.Close()
	select {
	case <-g.doneCh:
	case <-time.After(time.Second):
		t.Fatal("rxLoop did not exit after tun close")
	}
}

func TestGatewayRxLoopDropsUnknownDestination(t *testing.T) {
	tun := newFakeTun()
	users := &fakeUserManager{byIP: map[uint32]*fakeBearer{}}
	toPdcp := bus.NewQueue()
	received := make(chan bus.Message, 4)
	toPdcp.AttachRx(func(m bus.Message) { received <- m })

	g := &Gateway{cfg: Config{}, users: users, toPdcp: toPdcp, tunFile: tun, doneCh: make(chan struct{})}
	g.started.Store(true)
	go g.rxLoop()

	pkt := buildIPv4Packet(0xFFFFFFFF, []byte{0x01})
	tun.push(pkt)

	select {
	case m := <-received:
		t.Fatalf("unexpected message for unknown destination: %+v", m)
	case <-time.After(100 * time.Millisecond):
	}

	tun.Close()
}

func TestGatewayRxLoopReassemblesSplitIPv4Packet(t *testing.T) {
	tun := newFakeTun()
	bearer := &fakeBearer{}
	users := &fakeUserManager{byIP: map[uint32]*fakeBearer{0x0A000106: bearer}}
	toPdcp := bus.NewQueue()
	received := make(chan bus.Message, 4)
	toPdcp.AttachRx(func(m bus.Message) { received <- m })

	g := &Gateway{cfg: Config{}, users: users, toPdcp: toPdcp, tunFile: tun, doneCh: make(chan struct{})}
	g.started.Store(true)
	go g.rxLoop()

	pkt := buildIPv4Packet(0x0A000106, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	tun.push(pkt[:12])
	tun.push(pkt[12:])

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reassembled packet")
	}
	tun.Close()
}

// TestGatewayRxLoopReassemblesThreeFragmentIPv4Packet exercises the literal
// reassembly rule for an incomplete IPv4 read: idx is reset to the length of
// the just-read chunk alone, not the cumulative total read so far, mirroring
// LTE_fdd_enb_gw::receive_thread's own idx = N_bytes; on the IPv4 path. A
// third fragment, written starting at that narrower offset (6), overwrites
// the tail of the first fragment and all of the second, and the destination
// field ends up at an offset relative to the third fragment rather than the
// packet as a whole. If idx were instead carried forward as the cumulative
// total (16), the buffer would hold 36 bytes against a totLen of 26, the
// totLen check would never match, and this test would time out waiting for a
// message that never arrives.
func TestGatewayRxLoopReassemblesThreeFragmentIPv4Packet(t *testing.T) {
	const dst = 0x0A000108
	const totLen = 26 // 20-byte header + 6 bytes of payload

	frag1 := make([]byte, 10)
	frag1[0] = 0x45
	binary.BigEndian.PutUint16(frag1[2:4], totLen)

	frag2 := make([]byte, 6)

	frag3 := make([]byte, 20)
	binary.BigEndian.PutUint32(frag3[10:14], dst) // lands at buf[16:20]

	tun := newFakeTun()
	bearer := &fakeBearer{}
	users := &fakeUserManager{byIP: map[uint32]*fakeBearer{dst: bearer}}
	toPdcp := bus.NewQueue()
	received := make(chan bus.Message, 4)
	toPdcp.AttachRx(func(m bus.Message) { received <- m })

	g := &Gateway{cfg: Config{}, users: users, toPdcp: toPdcp, tunFile: tun, doneCh: make(chan struct{})}
	g.started.Store(true)
	go g.rxLoop()

	tun.push(frag1)
	tun.push(frag2)
	tun.push(frag3)

	select {
	case m := <-received:
		if m.Type != bus.PdcpDataSduReady {
			t.Fatalf("message type = %v, want PdcpDataSduReady", m.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reassembled packet; idx is not being reset to the just-read chunk length on an incomplete IPv4 read")
	}

	queued, ok := bearer.NextDownlink()
	if !ok {
		t.Fatal("bearer has no queued packet")
	}
	if len(queued) != totLen {
		t.Fatalf("queued packet length = %d, want %d", len(queued), totLen)
	}

	tun.Close()
}

func TestGatewayHandlePdcpMsgWritesAndFrees(t *testing.T) {
	tun := newFakeTun()
	bearer := &fakeBearer{}
	bearer.QueueDownlink([]byte{0xAA, 0xBB})

	g := &Gateway{tunFile: tun}
	g.handlePdcpMsg(bus.Message{Type: bus.GwDataReady, DestLayer: bus.LayerAny, Body: Bearer(bearer)})

	if len(tun.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(tun.writes))
	}
	if tun.writes[0][0] != 0xAA || tun.writes[0][1] != 0xBB {
		t.Fatalf("write = % X, want AA BB", tun.writes[0])
	}
	if _, ok := bearer.NextDownlink(); ok {
		t.Fatal("bearer still has a queued message after drain")
	}
}

func TestGatewayHandlePdcpMsgIgnoresOtherTypes(t *testing.T) {
	tun := newFakeTun()
	g := &Gateway{tunFile: tun}
	g.handlePdcpMsg(bus.Message{Type: bus.TimerTick, DestLayer: bus.LayerAny})
	if len(tun.writes) != 0 {
		t.Fatalf("writes = %d, want 0 for a non-GwDataReady message", len(tun.writes))
	}
}
