package storage

import "sync"

// Subscription identifies a registered change handler. The zero value is
// never issued.
type Subscription uint64

// Hub fans change events out to registered handlers. Stores embed it and call
// Broadcast for their own writes and for events from their change feed.
type Hub struct {
	mu       sync.RWMutex
	next     Subscription
	handlers map[Subscription]ChangeHandler

	// OnFirst and OnLast, when set, run as the first handler registers and the
	// last one leaves. Stores use them to start and stop their change feed.
	OnFirst func() error
	OnLast  func()
}

// Add registers handler and returns its handle.
func (h *Hub) Add(handler ChangeHandler) (Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.handlers == nil {
		h.handlers = make(map[Subscription]ChangeHandler)
	}
	if len(h.handlers) == 0 && h.OnFirst != nil {
		if err := h.OnFirst(); err != nil {
			return 0, err
		}
	}

	h.next++
	h.handlers[h.next] = handler
	return h.next, nil
}

// Remove drops the handler. Unknown handles are ignored, so a second release
// of the same subscription is harmless.
func (h *Hub) Remove(sub Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.handlers[sub]; !ok {
		return
	}
	delete(h.handlers, sub)
	if len(h.handlers) == 0 && h.OnLast != nil {
		h.OnLast()
	}
}

// Len returns the number of registered handlers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.handlers)
}

// Broadcast calls every handler outside the lock.
func (h *Hub) Broadcast() {
	h.mu.RLock()
	handlers := make([]ChangeHandler, 0, len(h.handlers))
	for _, fn := range h.handlers {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		fn()
	}
}

// Reset drops every handler without calling OnLast. Stores call it on Close
// after tearing their feed down themselves.
func (h *Hub) Reset() {
	h.mu.Lock()
	h.handlers = nil
	h.mu.Unlock()
}
