package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"paygate/internal/events"
	"paygate/internal/status"
	"paygate/internal/store"
	"paygate/models"
	"paygate/monitoring"
)

// PaymentResult is what a protocol codec hands over after it has
// verified and broadcast a transaction.
type PaymentResult struct {
	InvoiceID string
	TxID      string
	Vout      uint32

	// Kept for log context; the invoice record stays authoritative.
	Address string
	Amount  int64
	TxHex   string
}

// InvoiceService owns invoice lookup, payment persistence and
// subscriber notification. Every codec calls OnPayment after a
// successful verify+broadcast; nothing else transitions an invoice.
type InvoiceService struct {
	store   store.InvoiceStore
	subs    *SubscriptionRegistry
	bus     events.Bus
	redis   *redis.Client
	lockTTL time.Duration
}

func NewInvoiceService(st store.InvoiceStore, subs *SubscriptionRegistry, bus events.Bus, redisClient *redis.Client, lockTTL time.Duration) *InvoiceService {
	return &InvoiceService{
		store:   st,
		subs:    subs,
		bus:     bus,
		redis:   redisClient,
		lockTTL: lockTTL,
	}
}

// CreateInvoice validates and persists a new unpaid invoice. The
// address must decode under the requested network; amount and address
// are immutable afterwards.
func (s *InvoiceService) CreateInvoice(ctx context.Context, network models.Network, address string, amount int64, memo string, origin models.OriginEvent) (*models.Invoice, error) {
	if _, err := models.ParseNetwork(string(network)); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("invoice amount must be positive, got %d", amount)
	}
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	if _, err := network.DecodeAddress(address); err != nil {
		return nil, err
	}

	inv, err := s.store.Create(ctx, &models.Invoice{
		Network: network,
		Address: address,
		Amount:  amount,
		Memo:    memo,
		Origin:  origin,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("invoice created",
		"invoice_id", inv.ID, "network", inv.Network, "address", inv.Address, "amount", inv.Amount, "origin", inv.Origin.Kind)
	return inv, nil
}

// GetInvoice returns the invoice whether paid or not. Codecs use it to
// build protocol request payloads.
func (s *InvoiceService) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	return s.store.GetAny(ctx, id)
}

// GetUnpaidInvoice fails with status.ErrAlreadyPaid for settled invoices.
func (s *InvoiceService) GetUnpaidInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	return s.store.GetUnpaid(ctx, id)
}

// GetPayment returns the payment attached to an invoice, if any.
func (s *InvoiceService) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	return s.store.GetPayment(ctx, id)
}

// OnPayment completes a payment: persist first-wins, notify the live
// subscriber (fire-and-continue), then emit one outbound domain event
// picked from the invoice's origin kind.
//
// Two submissions for the same invoice can arrive concurrently; a
// redis SETNX lock serializes them and the store's conditional write
// remains the authority even if redis is unavailable.
func (s *InvoiceService) OnPayment(ctx context.Context, result PaymentResult) error {
	lockKey := fmt.Sprintf("invoice:paylock:%s", result.InvoiceID)
	locked, err := s.redis.SetNX(ctx, lockKey, result.TxID, s.lockTTL).Result()
	if err != nil {
		slog.Warn("payment lock unavailable, relying on store conditional write",
			"invoice_id", result.InvoiceID, "error", err)
	} else if !locked {
		return status.ErrPaymentInFlight
	} else {
		defer s.redis.Del(ctx, lockKey)
	}

	inv, err := s.store.GetAny(ctx, result.InvoiceID)
	if err != nil {
		return err
	}

	payment, err := s.store.SavePayment(ctx, result.InvoiceID, result.TxID, result.Vout)
	if err != nil {
		return fmt.Errorf("complete invoice %s (network=%s address=%s amount=%d tx=%s): %w",
			result.InvoiceID, inv.Network, inv.Address, inv.Amount, result.TxID, err)
	}

	slog.Info("invoice paid",
		"invoice_id", inv.ID, "network", inv.Network, "address", inv.Address,
		"amount", inv.Amount, "tx_id", payment.TxID, "vout", payment.Vout)
	monitoring.TrackPaymentCompleted(string(inv.Origin.Kind))

	// Subscription errors stay here; the payment already landed.
	s.subs.Notify(inv.ID, payment)

	event, err := events.ForPayment(inv, payment)
	if err != nil {
		return err
	}
	if err := s.bus.Send(ctx, event); err != nil {
		slog.Error("outbound event failed", "invoice_id", inv.ID, "kind", inv.Origin.Kind, "error", err)
		return err
	}
	return nil
}

// Subscribe registers a live-status callback for an invoice.
func (s *InvoiceService) Subscribe(invoiceID string, fn func(*models.Payment)) {
	s.subs.Subscribe(invoiceID, fn)
}

// Unsubscribe drops the invoice's live-status callback.
func (s *InvoiceService) Unsubscribe(invoiceID string) {
	s.subs.Unsubscribe(invoiceID)
}
