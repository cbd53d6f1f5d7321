package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"paygate/models"
	"paygate/utils"
)

// Event is one outbound domain event. Exactly one is emitted per paid
// invoice, selected by the invoice's origin-event kind.
type Event interface {
	EventKind() models.OriginKind
}

// PaymentFacts is what the gateway learned about the settling
// transaction. AmountBCH is the satoshi amount scaled to whole coins;
// AmountSat stays the exact integer.
type PaymentFacts struct {
	InvoiceID string          `json:"invoice_id"`
	Network   models.Network  `json:"network"`
	Address   string          `json:"address"`
	AmountSat int64           `json:"amount_sat"`
	AmountBCH decimal.Decimal `json:"amount_bch"`
	TxID      string          `json:"tx_id"`
	Vout      uint32          `json:"vout"`
	PaidAt    time.Time       `json:"paid_at"`
}

// TipDeposit notifies the tipping ledger.
type TipDeposit struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Facts   PaymentFacts    `json:"payment"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (TipDeposit) EventKind() models.OriginKind { return models.OriginTip }

// PledgeDeposit notifies the crowdfunding ledger.
type PledgeDeposit struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Facts   PaymentFacts    `json:"payment"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (PledgeDeposit) EventKind() models.OriginKind { return models.OriginPledge }

// ForPayment builds the outbound event for a settled invoice. The
// invoice's origin payload rides along unchanged.
func ForPayment(inv *models.Invoice, payment *models.Payment) (Event, error) {
	id, err := utils.GenerateCode(8)
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}

	facts := PaymentFacts{
		InvoiceID: inv.ID,
		Network:   inv.Network,
		Address:   inv.Address,
		AmountSat: inv.Amount,
		AmountBCH: decimal.New(inv.Amount, -8),
		TxID:      payment.TxID,
		Vout:      payment.Vout,
		PaidAt:    payment.PaidAt,
	}

	switch inv.Origin.Kind {
	case models.OriginTip:
		return TipDeposit{ID: id, Type: "tip-deposit", Facts: facts, Payload: inv.Origin.Payload}, nil
	case models.OriginPledge:
		return PledgeDeposit{ID: id, Type: "pledge-deposit", Facts: facts, Payload: inv.Origin.Payload}, nil
	}
	return nil, fmt.Errorf("unknown origin event kind: %q", inv.Origin.Kind)
}

// Bus carries events to the rest of the platform. Delivery is
// best-effort; this core never retries failed sends.
type Bus interface {
	Send(ctx context.Context, e Event) error
}
