package oauth

import "sync"

// Listener receives envelopes posted to a MessageBus.
type Listener func(Envelope)

// ListenerID identifies a registered listener.
type ListenerID uint64

// MessageBus delivers envelopes to every registered listener. It stands in
// for the window message channel between the login popup and its opener.
type MessageBus struct {
	mu        sync.Mutex
	nextID    ListenerID
	listeners map[ListenerID]Listener
}

// NewMessageBus creates an empty bus.
func NewMessageBus() *MessageBus {
	return &MessageBus{listeners: make(map[ListenerID]Listener)}
}

// AddListener registers l and returns its id.
func (b *MessageBus) AddListener(l Listener) ListenerID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.listeners[b.nextID] = l
	return b.nextID
}

// RemoveListener unregisters id. Removing an unknown id is a no-op.
func (b *MessageBus) RemoveListener(id ListenerID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, id)
}

// ListenerCount returns the number of registered listeners.
func (b *MessageBus) ListenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Post delivers env synchronously to the listeners registered at the time
// of the call and returns how many received it. Listeners may remove
// themselves while being called.
func (b *MessageBus) Post(env Envelope) int {
	b.mu.Lock()
	snapshot := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		snapshot = append(snapshot, l)
	}
	b.mu.Unlock()

	for _, l := range snapshot {
		l(env)
	}
	return len(snapshot)
}
