// Package gateway receives device events over HTTP and keeps the newest item per feed.
package gateway

import (
	"sync"
	"time"
)

// Message is one item pushed by the device
type Message struct {
	ID         string    `json:"id"`
	Sender     string    `json:"sender"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// Inbox holds the newest message received
type Inbox struct {
	mu     sync.RWMutex
	latest *Message
}

// NewInbox creates an empty inbox
func NewInbox() *Inbox {
	return &Inbox{}
}

// Put stores the message unless a newer one is already held
func (i *Inbox) Put(m Message) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.latest != nil && m.ReceivedAt.Before(i.latest.ReceivedAt) {
		return
	}
	i.latest = &m
}

// Latest returns the newest message
func (i *Inbox) Latest() (Message, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.latest == nil {
		return Message{}, false
	}
	return *i.latest, true
}

// CallFeed fans incoming call events out to registered handlers
type CallFeed struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(Message)
}

// NewCallFeed creates a call feed without handlers
func NewCallFeed() *CallFeed {
	return &CallFeed{handlers: make(map[int]func(Message))}
}

// OnCall registers a handler and returns a function removing it
func (f *CallFeed) OnCall(fn func(Message)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	f.handlers[id] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, id)
	}
}

// Publish delivers a call to every handler
func (f *CallFeed) Publish(m Message) {
	f.mu.RLock()
	handlers := make([]func(Message), 0, len(f.handlers))
	for _, fn := range f.handlers {
		handlers = append(handlers, fn)
	}
	f.mu.RUnlock()

	for _, fn := range handlers {
		fn(m)
	}
}
