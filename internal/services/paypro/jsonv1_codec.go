package paypro

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gcash/bchd/wire"

	"paygate/internal/services"
	"paygate/internal/status"
)

// JSON Payment Protocol v1 payload shapes.
type (
	v1Output struct {
		Amount  int64  `json:"amount"`
		Address string `json:"address"`
	}

	v1PaymentRequest struct {
		Network    string     `json:"network"`
		Currency   string     `json:"currency"`
		Outputs    []v1Output `json:"outputs"`
		Time       time.Time  `json:"time"`
		Expires    time.Time  `json:"expires"`
		Memo       string     `json:"memo,omitempty"`
		PaymentURL string     `json:"paymentUrl"`
		PaymentID  string     `json:"paymentId"`
	}

	v1Payment struct {
		Currency     string   `json:"currency"`
		Transactions []string `json:"transactions"`
	}

	v1Ack struct {
		Payment v1Payment `json:"payment"`
		Memo    string    `json:"memo"`
	}
)

// V1Request returns the JSON payment request for an invoice.
func (s *Service) V1Request(ctx context.Context, invoiceID string) (*Response, error) {
	inv, err := s.orc.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	request := v1PaymentRequest{
		Network:    inv.Network.JSONName(),
		Currency:   "BCH",
		Outputs:    []v1Output{{Amount: inv.Amount, Address: inv.Address}},
		Time:       now,
		Expires:    now.Add(s.bip70Expiry),
		Memo:       inv.Memo,
		PaymentURL: s.paymentURL(inv.ID),
		PaymentID:  inv.ID,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	return &Response{ContentType: MediaTypePaymentRequest, Body: body}, nil
}

// V1Pay serves both the verify-payment and payment phases: v1 wallets
// expect both to run the full decode → verify → broadcast → complete
// sequence, differing only in the header that selected them.
func (s *Service) V1Pay(ctx context.Context, invoiceID string, body []byte) (*Response, error) {
	payment, err := decodeV1Payment(body)
	if err != nil {
		return nil, err
	}

	inv, err := s.orc.GetUnpaidInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	tx, err := decodeSingleTransaction(payment.Transactions[0])
	if err != nil {
		return nil, err
	}

	txID, completionErr, err := s.submit(ctx, inv, tx, payment.Transactions[0])
	if err != nil {
		return nil, err
	}

	memo := fmt.Sprintf("payment received: %s", txID)
	if completionErr != nil {
		slog.Error("payment completion failed after broadcast",
			"invoice_id", inv.ID, "tx_id", txID, "error", completionErr)
		memo = "payment broadcast, but recording it failed; it will be reconciled"
	}

	responseBody, err := json.Marshal(v1Ack{Payment: payment, Memo: memo})
	if err != nil {
		return nil, err
	}
	return &Response{ContentType: "application/json", Body: responseBody}, nil
}

func decodeV1Payment(body []byte) (v1Payment, error) {
	var payment v1Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		return payment, fmt.Errorf("%w: %v", status.ErrDecode, err)
	}
	if len(payment.Transactions) == 0 {
		return payment, fmt.Errorf("%w: payment carries no transaction", status.ErrDecode)
	}
	return payment, nil
}

func decodeSingleTransaction(txHex string) (*wire.MsgTx, error) {
	return services.DecodeTransactionHex(txHex)
}
