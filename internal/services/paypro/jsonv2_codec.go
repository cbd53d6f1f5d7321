package paypro

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"paygate/internal/services"
	"paygate/internal/status"
)

// JSON Payment Protocol v2 payload shapes.
type (
	v2PaymentOption struct {
		Chain           string `json:"chain"`
		Currency        string `json:"currency"`
		Network         string `json:"network"`
		EstimatedAmount int64  `json:"estimatedAmount"`
		RequiredFeeRate int64  `json:"requiredFeeRate"`
		MinerFee        int64  `json:"minerFee"`
		Decimals        int    `json:"decimals"`
		Selected        bool   `json:"selected"`
	}

	v2Options struct {
		Time           time.Time         `json:"time"`
		Expires        time.Time         `json:"expires"`
		Memo           string            `json:"memo,omitempty"`
		PaymentURL     string            `json:"paymentUrl"`
		PaymentID      string            `json:"paymentId"`
		PaymentOptions []v2PaymentOption `json:"paymentOptions"`
	}

	v2Instruction struct {
		Type            string     `json:"type"`
		RequiredFeeRate int64      `json:"requiredFeeRate"`
		Outputs         []v1Output `json:"outputs"`
	}

	v2PaymentRequest struct {
		Time         time.Time       `json:"time"`
		Expires      time.Time       `json:"expires"`
		Memo         string          `json:"memo,omitempty"`
		PaymentURL   string          `json:"paymentUrl"`
		PaymentID    string          `json:"paymentId"`
		Chain        string          `json:"chain"`
		Network      string          `json:"network"`
		Instructions []v2Instruction `json:"instructions"`
	}

	v2Transaction struct {
		Tx           string `json:"tx"`
		WeightedSize int    `json:"weightedSize,omitempty"`
	}

	v2Payment struct {
		Chain        string          `json:"chain"`
		Currency     string          `json:"currency"`
		Transactions []v2Transaction `json:"transactions"`
	}

	v2Ack struct {
		Payment v2Payment `json:"payment"`
		Memo    string    `json:"memo"`
	}
)

const v2FeeRate = 1 // sat/byte, flat; the gateway does not estimate fees

// V2Options lists the payable options for an invoice. There is exactly
// one: BCH on the invoice's network for the invoice's amount.
func (s *Service) V2Options(ctx context.Context, invoiceID string) (*Response, error) {
	inv, err := s.orc.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	options := v2Options{
		Time:       now,
		Expires:    now.Add(s.optionsExpiry),
		Memo:       inv.Memo,
		PaymentURL: s.paymentURL(inv.ID),
		PaymentID:  inv.ID,
		PaymentOptions: []v2PaymentOption{{
			Chain:           "BCH",
			Currency:        "BCH",
			Network:         inv.Network.JSONName(),
			EstimatedAmount: inv.Amount,
			RequiredFeeRate: v2FeeRate,
			Decimals:        8,
		}},
	}
	return s.signedJSON(options)
}

// V2Request returns the single payment instruction for an invoice.
func (s *Service) V2Request(ctx context.Context, invoiceID string) (*Response, error) {
	inv, err := s.orc.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	request := v2PaymentRequest{
		Time:       now,
		Expires:    now.Add(s.optionsExpiry),
		Memo:       inv.Memo,
		PaymentURL: s.paymentURL(inv.ID),
		PaymentID:  inv.ID,
		Chain:      "BCH",
		Network:    inv.Network.JSONName(),
		Instructions: []v2Instruction{{
			Type:            "transaction",
			RequiredFeeRate: v2FeeRate,
			Outputs:         []v1Output{{Amount: inv.Amount, Address: inv.Address}},
		}},
	}
	return s.signedJSON(request)
}

// V2Verify checks the candidate transaction against the invoice
// without broadcasting anything.
func (s *Service) V2Verify(ctx context.Context, invoiceID string, body []byte) (*Response, error) {
	payment, err := decodeV2Payment(body)
	if err != nil {
		return nil, err
	}

	inv, err := s.orc.GetUnpaidInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	tx, err := services.DecodeTransactionHex(payment.Transactions[0].Tx)
	if err != nil {
		return nil, err
	}
	if _, err := services.FindPayingOutput(tx, inv.Network, inv.Address, inv.Amount); err != nil {
		return nil, err
	}

	return s.signedJSON(v2Ack{Payment: payment, Memo: "payment appears valid"})
}

// V2Pay accepts the signed transaction: decode, verify, broadcast,
// complete, then echo the body back as the acknowledgment.
func (s *Service) V2Pay(ctx context.Context, invoiceID string, body []byte) (*Response, error) {
	payment, err := decodeV2Payment(body)
	if err != nil {
		return nil, err
	}

	inv, err := s.orc.GetUnpaidInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	txHex := payment.Transactions[0].Tx
	tx, err := services.DecodeTransactionHex(txHex)
	if err != nil {
		return nil, err
	}

	txID, completionErr, err := s.submit(ctx, inv, tx, txHex)
	if err != nil {
		return nil, err
	}
	if completionErr != nil {
		slog.Error("payment completion failed after broadcast",
			"invoice_id", inv.ID, "tx_id", txID, "error", completionErr)
	}

	return s.signedJSONRaw(body)
}

// decodeV2Payment enforces the v2 submission limits before any
// transaction bytes are touched: exactly one transaction, BCH only.
func decodeV2Payment(body []byte) (v2Payment, error) {
	var payment v2Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		return payment, fmt.Errorf("%w: %v", status.ErrDecode, err)
	}
	if len(payment.Transactions) != 1 {
		return payment, fmt.Errorf("%w: got %d transactions",
			status.ErrTooManyTransactions, len(payment.Transactions))
	}
	if payment.Currency != "" && payment.Currency != "BCH" {
		return payment, fmt.Errorf("%w: unsupported currency %q",
			status.ErrTooManyTransactions, payment.Currency)
	}
	return payment, nil
}

func (s *Service) signedJSON(v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return s.signedJSONRaw(body)
}

func (s *Service) signedJSONRaw(body []byte) (*Response, error) {
	headers, err := s.signer.Headers(body)
	if err != nil {
		return nil, err
	}
	return &Response{
		ContentType: "application/json",
		Body:        body,
		Headers:     headers,
	}, nil
}
