package db

import (
	"sync"
)

// ObserverCode is referring to the type of observer notification.
type ObserverCode int

const (
	// ObserveNewSchedule is published, when a leader schedule has been
	// written for a new slot. The response is the slot number.
	ObserveNewSchedule = 0
	// ObserveRecordedOutcome is published, when the block-production
	// outcome of a slot has been recorded. The response is the slot number.
	ObserveRecordedOutcome = 1
	// ObserveNewTally is published, when the tallies of an epoch have been
	// recomputed. The response is the epoch number.
	ObserveNewTally = 2
)

// ObserverMessage is a message describing a change of a db.DB update.
type ObserverMessage struct {
	Code     ObserverCode
	Response interface{}
}

// Observer allows registering change listeners for a db.DB instance.
type Observer struct {
	channels []chan<- ObserverMessage
	closed   bool
	lock     sync.Mutex
}

// Sub subscribes the given channel to get notification, when the db.DB got
// updated. The channel stays owned by the subscriber; the observer never
// closes it.
func (obv *Observer) Sub(c chan<- ObserverMessage) {
	obv.lock.Lock()
	defer obv.lock.Unlock()
	if obv.closed {
		return
	}
	obv.channels = append(obv.channels, c)
}

// Pub publishes the given message, which is distributed over all subscribed
// channels. Messages published after Close are dropped.
func (obv *Observer) Pub(msg ObserverMessage) {
	obv.lock.Lock()
	defer obv.lock.Unlock()
	if obv.closed {
		return
	}
	for _, c := range obv.channels {
		go push(c, msg)
	}
}

// push is pushing a message to the given channel.
func push(c chan<- ObserverMessage, msg ObserverMessage) {
	c <- msg
}

// Close is closing this observer. Subsequent publishes are dropped. The
// subscribed channels are left open, since in-flight publishes may still be
// delivering to them; subscribers stop on their own context instead of a
// channel close.
func (obv *Observer) Close() {
	obv.lock.Lock()
	defer obv.lock.Unlock()
	obv.closed = true
	obv.channels = nil
}
