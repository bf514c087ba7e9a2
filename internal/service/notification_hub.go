package service

import (
	"sync"
	"time"

	"medledger/internal/domain/entity"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

const (
	subscriberBuffer = 16
	publishTimeout   = time.Second
)

// NotificationHub pushes ledger notifications to live SSE subscribers.
// A user may hold several connections; each gets its own channel.
type NotificationHub struct {
	mu          sync.RWMutex
	subscribers map[int64]map[chan entity.LedgerNotification]struct{}
	closed      bool
	log         *logrus.Logger
}

func NewNotificationHub(log *logrus.Logger) *NotificationHub {
	return &NotificationHub{
		subscribers: make(map[int64]map[chan entity.LedgerNotification]struct{}),
		log:         log,
	}
}

// Subscribe registers a connection for userID. The returned func must be
// called when the connection closes. After Close the channel comes back
// already closed.
func (h *NotificationHub) Subscribe(userID int64) (<-chan entity.LedgerNotification, func()) {
	ch := make(chan entity.LedgerNotification, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[chan entity.LedgerNotification]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		// Close may already have closed ch.
		if _, ok := h.subscribers[userID][ch]; !ok {
			return
		}
		delete(h.subscribers[userID], ch)
		if len(h.subscribers[userID]) == 0 {
			delete(h.subscribers, userID)
		}
		close(ch)
	}
}

// Close ends every open stream. Registered with the HTTP server's shutdown
// hooks so SSE handlers return instead of holding Shutdown open.
func (h *NotificationHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true

	var streams int
	for _, conns := range h.subscribers {
		for ch := range conns {
			close(ch)
			streams++
		}
	}
	h.subscribers = make(map[int64]map[chan entity.LedgerNotification]struct{})
	h.log.Infof("Closed %d notification streams", streams)
}

// Publish fans the notifications out to their users' connections in
// parallel. Slow connections drop the message after publishTimeout.
func (h *NotificationHub) Publish(notifications ...entity.LedgerNotification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var wg conc.WaitGroup
	for _, n := range notifications {
		for ch := range h.subscribers[n.UserID] {
			n, ch := n, ch
			wg.Go(func() {
				select {
				case ch <- n:
				case <-time.After(publishTimeout):
					h.log.Warnf("Dropped notification %d for user %d: subscriber too slow", n.ID, n.UserID)
				}
			})
		}
	}
	wg.Wait()
}

// Subscribers returns the number of open connections of userID.
func (h *NotificationHub) Subscribers(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}
