package models

import (
	"time"
)

// InvoiceSchemaVersion is stamped onto new invoices so stored records
// can be migrated if the shape changes.
const InvoiceSchemaVersion = 1

// Invoice is a record specifying the amount, address and network an
// incoming payment must satisfy. Amount, address and network are fixed
// at creation; the address must encode the invoice's network.
type Invoice struct {
	ID      string  `json:"id"`
	Network Network `json:"network"`
	Address string  `json:"address"`

	// Amount is in satoshis. Always an integer, never a float.
	Amount int64 `json:"amount"`

	Memo string `json:"memo,omitempty"`

	// Origin describes the downstream action to trigger once paid.
	// Its payload is opaque to the gateway and forwarded unchanged.
	Origin OriginEvent `json:"origin"`

	Paid      bool       `json:"paid"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Version   int        `json:"version"`
}

// Payment records the transaction that satisfied an invoice. There is
// at most one payment per invoice.
type Payment struct {
	InvoiceID string    `json:"invoice_id"`
	TxID      string    `json:"tx_id"`
	Vout      uint32    `json:"vout"`
	PaidAt    time.Time `json:"paid_at"`
}
