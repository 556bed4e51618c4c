// SPDX-License-Identifier: Apache-2.0

// Package bus implements the inter-layer message queue: a point-to-point
// publisher/subscriber channel with at-least-once in-order delivery and a
// single attached receiver, used to carry tick and dataplane-readiness
// events between the gateway, timer manager, and PDCP layer.
package bus

import "github.com/openlte-go/fdd-enb/logger"

// MessageType identifies the payload carried by a Message.
type MessageType int

const (
	// TimerTick is posted by an external ticker roughly once per
	// configured tick interval; the timer manager advances every running
	// timer by one tick for each message received.
	TimerTick MessageType = iota
	// GwDataReady is posted by PDCP to the gateway's inbound queue when a
	// bearer has one or more downlink byte messages ready to write to TUN.
	// Body carries the Bearer to drain.
	GwDataReady
	// PdcpDataSduReady is posted by the gateway to PDCP's inbound queue
	// when an uplink byte message has been queued on a user's bearer.
	// Body carries the Bearer the message was queued on.
	PdcpDataSduReady
)

func (t MessageType) String() string {
	switch t {
	case TimerTick:
		return "TIMER_TICK"
	case GwDataReady:
		return "GW_DATA_READY"
	case PdcpDataSduReady:
		return "PDCP_DATA_SDU_READY"
	default:
		return "UNKNOWN"
	}
}

// Layer identifies the intended recipient of a Message.
type Layer int

const (
	LayerTimerMgr Layer = iota
	LayerPdcp
	// LayerAny matches every handler regardless of its own layer.
	LayerAny
)

func (l Layer) String() string {
	switch l {
	case LayerTimerMgr:
		return "TIMER_MGR"
	case LayerPdcp:
		return "PDCP"
	case LayerAny:
		return "ANY"
	default:
		return "UNKNOWN"
	}
}

// Message is a tagged record posted onto a Queue.
type Message struct {
	Type      MessageType
	DestLayer Layer
	Body      any
}

// defaultQueueCapacity bounds a Queue's internal channel so a runaway
// producer blocks rather than growing memory without limit; ordinary
// tick/dataplane traffic never approaches it.
const defaultQueueCapacity = 256

// Queue is a single-attached-receiver message channel. Send is safe to call
// from any number of goroutines. Each AttachRx call starts its own dispatch
// goroutine on the same channel, so after a second call each message reaches
// only one of the two callbacks; callers should attach exactly once per Queue.
type Queue struct {
	ch chan Message
}

// NewQueue returns a Queue ready for Send and AttachRx.
func NewQueue() *Queue {
	return &Queue{ch: make(chan Message, defaultQueueCapacity)}
}

// Send enqueues msg for delivery to the attached receiver, in order with
// every other Send on this Queue. It blocks only if the queue is full,
// which indicates a stalled or missing receiver.
func (q *Queue) Send(msg Message) {
	q.ch <- msg
}

// AttachRx starts the dispatch goroutine that delivers every Message sent
// on this Queue to cb, in send order. It returns immediately; delivery
// happens on the goroutine it starts, which runs until the Queue is closed.
func (q *Queue) AttachRx(cb func(Message)) {
	go q.dispatch(cb)
}

func (q *Queue) dispatch(cb func(Message)) {
	for msg := range q.ch {
		logger.BusLog.Debugf("dispatching %s to %s", msg.Type, msg.DestLayer)
		cb(msg)
	}
}

// Close stops the Queue: the dispatch goroutine still delivers any Message
// already sent, then exits. Close must not be called concurrently with Send,
// and Send must not be called after Close.
func (q *Queue) Close() {
	close(q.ch)
}

// Accepts reports whether dest is a Message this handler, whose own layer
// is self, should act on: destination layers are either the handler's own
// layer or LayerAny.
func Accepts(self, dest Layer) bool {
	return dest == self || dest == LayerAny
}
