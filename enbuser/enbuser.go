// SPDX-License-Identifier: Apache-2.0

// Package enbuser implements a minimal user and bearer registry standing in
// for the external user manager collaborator: it hands out C-RNTIs, tracks
// users by C-RNTI and by their allocated downlink IPv4 address, and queues
// downlink byte messages per bearer for the gateway to drain.
package enbuser

import (
	"errors"
	"sync"

	"github.com/omec-project/util/idgenerator"

	"github.com/openlte-go/fdd-enb/logger"
)

// ErrNoFreeCRnti is returned by NewUser when the C-RNTI space is exhausted.
var ErrNoFreeCRnti = errors.New("enbuser: no free C-RNTI")

// minCRnti and maxCRnti bound the non-reserved C-RNTI range per 36.321
// Table 7.1-1 (0x0001-0xFFF3; 0x0000 and 0xFFF4-0xFFFF are reserved).
const (
	minCRnti = 0x0001
	maxCRnti = 0xFFF3
)

// Bearer is a FIFO queue of downlink byte messages for one radio bearer.
// A Bearer is safe for concurrent use.
type Bearer struct {
	mu    sync.Mutex
	queue [][]byte
}

// QueueDownlink appends msg to the tail of the downlink queue.
func (b *Bearer) QueueDownlink(msg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = append(b.queue, msg)
}

// NextDownlink returns the head of the downlink queue without removing it,
// and reports whether one was present.
func (b *Bearer) NextDownlink() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return nil, false
	}
	return b.queue[0], true
}

// FreeNextDownlink removes the head of the downlink queue, if any.
func (b *Bearer) FreeNextDownlink() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return
	}
	b.queue = b.queue[1:]
}

// User is one attached UE, identified by its allocated C-RNTI, with a
// single DRB1 data radio bearer.
type User struct {
	CRnti uint16
	IPv4  uint32
	DRB1  *Bearer
}

// Registry tracks attached Users by C-RNTI and by their allocated downlink
// IPv4 address.
type Registry struct {
	byCRnti sync.Map // map[uint16]*User
	byIPv4  sync.Map // map[uint32]*User
	crntiID *idgenerator.IDGenerator
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{crntiID: idgenerator.NewGenerator(minCRnti, maxCRnti)}
}

// NewUser allocates a C-RNTI and registers a new User owning ip, indexed by
// both its C-RNTI and ip for later lookup.
func (r *Registry) NewUser(ip uint32) (*User, error) {
	id, err := r.crntiID.Allocate()
	if err != nil {
		logger.EnbUserLog.Debugf("no free C-RNTI for new user at %d", ip)
		return nil, ErrNoFreeCRnti
	}
	u := &User{
		CRnti: uint16(id),
		IPv4:  ip,
		DRB1:  &Bearer{},
	}
	r.byCRnti.Store(u.CRnti, u)
	r.byIPv4.Store(u.IPv4, u)
	logger.EnbUserLog.Debugf("registered user C-RNTI %#04x for %d", u.CRnti, ip)
	return u, nil
}

// DeleteUser removes u from both indexes and frees its C-RNTI for reuse.
func (r *Registry) DeleteUser(u *User) {
	r.byCRnti.Delete(u.CRnti)
	r.byIPv4.Delete(u.IPv4)
	r.crntiID.FreeID(int64(u.CRnti))
	logger.EnbUserLog.Debugf("deleted user C-RNTI %#04x", u.CRnti)
}

// UserByCRnti looks up a User by its C-RNTI.
func (r *Registry) UserByCRnti(crnti uint16) (*User, bool) {
	v, ok := r.byCRnti.Load(crnti)
	if !ok {
		return nil, false
	}
	return v.(*User), true
}

// UserByIPv4 looks up a User by its allocated downlink IPv4 address,
// matching the gateway's destination-address lookup on the uplink path.
func (r *Registry) UserByIPv4(ip uint32) (*User, bool) {
	v, ok := r.byIPv4.Load(ip)
	if !ok {
		return nil, false
	}
	return v.(*User), true
}
