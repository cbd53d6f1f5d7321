package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"paygate/internal/services"
	"paygate/internal/status"
	"paygate/models"
)

// InvoiceHandler exposes the invoice CRUD surface consumed by the
// crowdfunding/tipping flows, plus the live-status SSE stream.
type InvoiceHandler struct {
	invoices *services.InvoiceService
}

func NewInvoiceHandler(invoices *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// Create - issue a new unpaid invoice
func (h *InvoiceHandler) Create(e *core.RequestEvent) error {
	var req struct {
		Network string             `json:"network"`
		Address string             `json:"address"`
		Amount  int64              `json:"amount"`
		Memo    string             `json:"memo"`
		Origin  models.OriginEvent `json:"origin"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	inv, err := h.invoices.CreateInvoice(
		e.Request.Context(),
		models.Network(req.Network), req.Address, req.Amount, req.Memo, req.Origin)
	if err != nil {
		return apis.NewBadRequestError("Failed to create invoice", err)
	}
	return e.JSON(http.StatusOK, inv)
}

// Get - read an invoice, paid or not
func (h *InvoiceHandler) Get(e *core.RequestEvent) error {
	inv, err := h.invoices.GetInvoice(e.Request.Context(), e.Request.PathValue("invoiceId"))
	if err != nil {
		return apis.NewNotFoundError("Invoice not found", err)
	}
	return e.JSON(http.StatusOK, inv)
}

// Events - live payment status over SSE. The subscription is
// registered when the stream opens and dropped when the client
// disconnects or the paid event has fired, whichever comes first.
func (h *InvoiceHandler) Events(e *core.RequestEvent) error {
	invoiceID := e.Request.PathValue("invoiceId")
	ctx := e.Request.Context()

	inv, err := h.invoices.GetInvoice(ctx, invoiceID)
	if err != nil {
		return apis.NewNotFoundError("Invoice not found", err)
	}

	w := e.Response
	flusher, ok := w.(http.Flusher)
	if !ok {
		return apis.NewInternalServerError("streaming unsupported", nil)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Invoice settled before the stream opened: replay and close.
	if inv.Paid {
		payment, err := h.invoices.GetPayment(ctx, invoiceID)
		if err != nil {
			if !errors.Is(err, status.ErrInvoiceNotFound) {
				slog.Error("payment lookup failed", "invoice_id", invoiceID, "error", err)
			}
			payment = &models.Payment{InvoiceID: invoiceID}
		}
		writePaidEvent(w, flusher, payment)
		return nil
	}

	ch := make(chan *models.Payment, 1)
	h.invoices.Subscribe(invoiceID, func(p *models.Payment) {
		select {
		case ch <- p:
		default:
		}
	})
	defer h.invoices.Unsubscribe(invoiceID)

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case payment := <-ch:
			writePaidEvent(w, flusher, payment)
			return nil

		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case <-ctx.Done():
			return nil
		}
	}
}

func writePaidEvent(w http.ResponseWriter, flusher http.Flusher, payment *models.Payment) {
	data, err := json.Marshal(payment)
	if err != nil {
		slog.Error("marshal paid event", "invoice_id", payment.InvoiceID, "error", err)
		return
	}
	fmt.Fprintf(w, "event: paid\ndata: %s\n\n", data)
	flusher.Flush()
}
