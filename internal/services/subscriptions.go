package services

import (
	"log/slog"
	"sync"

	"paygate/models"
	"paygate/monitoring"
)

// SubscriptionRegistry maps invoice ids to a single live-status
// callback each. It is process-local: subscriptions do not survive a
// restart and do not reach other gateway instances. Running more than
// one instance needs an external pub/sub relay in front of this.
type SubscriptionRegistry struct {
	mu   sync.Mutex
	subs map[string]func(*models.Payment)
}

func NewSubscriptionRegistry() *SubscriptionRegistry {
	return &SubscriptionRegistry{
		subs: make(map[string]func(*models.Payment)),
	}
}

// Subscribe registers the callback for an invoice, replacing any
// previous one. The callback fires at most once.
func (r *SubscriptionRegistry) Subscribe(invoiceID string, fn func(*models.Payment)) {
	r.mu.Lock()
	r.subs[invoiceID] = fn
	n := len(r.subs)
	r.mu.Unlock()
	monitoring.SetLiveSubscriptions(n)
}

func (r *SubscriptionRegistry) Unsubscribe(invoiceID string) {
	r.mu.Lock()
	delete(r.subs, invoiceID)
	n := len(r.subs)
	r.mu.Unlock()
	monitoring.SetLiveSubscriptions(n)
}

// Notify fires and removes the invoice's callback, if any. Callback
// panics are contained here: a broken subscriber must not fail the
// payment that is being completed.
func (r *SubscriptionRegistry) Notify(invoiceID string, payment *models.Payment) {
	r.mu.Lock()
	fn, ok := r.subs[invoiceID]
	if ok {
		delete(r.subs, invoiceID)
	}
	n := len(r.subs)
	r.mu.Unlock()
	monitoring.SetLiveSubscriptions(n)

	if !ok {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("subscription callback panicked", "invoice_id", invoiceID, "panic", rec)
		}
	}()
	fn(payment)
}

// Len reports the number of live subscriptions.
func (r *SubscriptionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
