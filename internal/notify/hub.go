package notify

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Severity of a toast.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// DefaultMaxPending is used when the hub is created without a limit.
const DefaultMaxPending = 20

// Toast is a transient notification shown to a single browser.
type Toast struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Success creates a success toast.
func Success(message string) Toast {
	return newToast(SeveritySuccess, message)
}

// Error creates an error toast.
func Error(message string) Toast {
	return newToast(SeverityError, message)
}

func newToast(severity Severity, message string) Toast {
	return Toast{
		ID:        uuid.NewString(),
		Severity:  severity,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// Hub relays toasts to browsers, keyed by the client id stored in the browser session.
// Toasts are either delivered live to subscribers or kept until the next page render.
type Hub struct {
	maxPending int

	mu          sync.Mutex
	pending     map[string][]Toast
	subscribers map[string]map[string]chan Toast // client id -> subscription id -> channel
}

// NewHub creates a new notification hub.
func NewHub(maxPending int) *Hub {
	if maxPending <= 0 {
		maxPending = DefaultMaxPending
	}
	return &Hub{
		maxPending:  maxPending,
		pending:     make(map[string][]Toast),
		subscribers: make(map[string]map[string]chan Toast),
	}
}

// Queue keeps the toast for the next page render of the client.
func (h *Hub) Queue(clientID string, toast Toast) {
	if clientID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queueLocked(clientID, toast)
}

func (h *Hub) queueLocked(clientID string, toast Toast) {
	queue := append(h.pending[clientID], toast)
	if over := len(queue) - h.maxPending; over > 0 {
		log.Debug("dropping oldest toasts", "client", clientID, "dropped", over)
		queue = queue[over:]
	}
	h.pending[clientID] = queue
}

// Publish delivers the toast to the live subscribers of the client.
// If no subscriber takes it, the toast is queued for the next render.
func (h *Hub) Publish(clientID string, toast Toast) {
	if clientID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := false
	for _, ch := range h.subscribers[clientID] {
		select {
		case ch <- toast:
			delivered = true
		default:
		}
	}
	if !delivered {
		h.queueLocked(clientID, toast)
	}
}

// Drain returns the pending toasts of the client and forgets them.
func (h *Hub) Drain(clientID string) []Toast {
	h.mu.Lock()
	defer h.mu.Unlock()
	toasts := h.pending[clientID]
	delete(h.pending, clientID)
	return toasts
}

// Expire forgets the pending toasts of clients whose newest toast is older than maxAge,
// so browsers that never render another page do not keep their queue forever.
// It returns the number of clients that were dropped.
func (h *Hub) Expire(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	h.mu.Lock()
	defer h.mu.Unlock()

	var dropped int
	for clientID, queue := range h.pending {
		if len(queue) == 0 || queue[len(queue)-1].CreatedAt.Before(cutoff) {
			delete(h.pending, clientID)
			dropped++
		}
	}
	return dropped
}

// PendingClients returns the number of clients with undelivered toasts.
func (h *Hub) PendingClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// Subscribe registers a live subscriber for the client.
// The returned cancel function must be called once the subscriber is gone, it closes the channel.
func (h *Hub) Subscribe(clientID string) (<-chan Toast, func()) {
	ch := make(chan Toast, h.maxPending)
	subID := uuid.NewString()

	h.mu.Lock()
	if h.subscribers[clientID] == nil {
		h.subscribers[clientID] = make(map[string]chan Toast)
	}
	h.subscribers[clientID][subID] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[clientID], subID)
			if len(h.subscribers[clientID]) == 0 {
				delete(h.subscribers, clientID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of live subscribers of the client.
func (h *Hub) Subscribers(clientID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[clientID])
}
