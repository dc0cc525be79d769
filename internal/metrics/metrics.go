package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"stackstore-be/internal/transport"
)

const (
	OrdersCommitted  = "orders_committed"
	OrdersDemo       = "orders_demo"
	CheckoutRejected = "checkout_rejected"
	CheckoutLatency  = "checkout_latency_ms_total"
	WebhookPaid      = "webhook_paid"
	WebhookRejected  = "webhook_rejected"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveInto adds the elapsed milliseconds to c.
func (t *Timer) ObserveInto(c *Counter) {
	c.Add(uint64(t.Duration().Milliseconds()))
}

// Registry hands out named counters; the zero value is not usable, use NewRegistry.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
}

func NewRegistry() *Registry {
	return &Registry{counters: make(map[string]*Counter)}
}

func (r *Registry) Counter(name string) *Counter {
	r.mu.RLock()
	c, ok := r.counters[name]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok = r.counters[name]; !ok {
		c = &Counter{}
		r.counters[name] = c
	}
	return c
}

func (r *Registry) Snapshot() map[string]uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]uint64, len(r.counters))
	for name, c := range r.counters {
		out[name] = c.Load()
	}
	return out
}

// Handler serves the counters as a flat JSON object.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		transport.WriteJSON(w, http.StatusOK, r.Snapshot())
	})
}
