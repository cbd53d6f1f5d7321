package store

import (
	"context"

	"paygate/models"
)

// InvoiceStore owns invoice and payment persistence. SavePayment is the
// single authority for the unpaid→paid transition: it must refuse to
// attach a second payment to an invoice that is already paid.
type InvoiceStore interface {
	Create(ctx context.Context, inv *models.Invoice) (*models.Invoice, error)

	// GetUnpaid returns the invoice only while it is still unpaid.
	// Paid or missing ids fail with status.ErrAlreadyPaid or
	// status.ErrInvoiceNotFound.
	GetUnpaid(ctx context.Context, id string) (*models.Invoice, error)

	// GetAny returns the invoice whether paid or not.
	GetAny(ctx context.Context, id string) (*models.Invoice, error)

	// SavePayment marks the invoice paid and records the payment in one
	// transaction. First writer wins; later writers get status.ErrAlreadyPaid.
	SavePayment(ctx context.Context, invoiceID, txID string, vout uint32) (*models.Payment, error)

	// GetPayment returns the payment attached to an invoice, if any.
	GetPayment(ctx context.Context, invoiceID string) (*models.Payment, error)
}
