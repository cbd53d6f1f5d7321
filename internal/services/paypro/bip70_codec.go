package paypro

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/gcash/bchd/txscript"

	"paygate/internal/services"
	"paygate/internal/services/paypro/bip70"
	"paygate/internal/status"
)

// BIP70Request builds the binary PaymentRequest for an invoice: one
// output paying the invoice amount to the invoice address, a 24h
// expiry and the submission URL.
func (s *Service) BIP70Request(ctx context.Context, invoiceID string) (*Response, error) {
	inv, err := s.orc.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	addr, err := inv.Network.DecodeAddress(inv.Address)
	if err != nil {
		return nil, err
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("build locking script for %s: %w", inv.Address, err)
	}

	now := time.Now()
	details := bip70.PaymentDetails{
		Network:      inv.Network.BIP70Name(),
		Outputs:      []bip70.Output{{Amount: uint64(inv.Amount), Script: script}},
		Time:         uint64(now.Unix()),
		Expires:      uint64(now.Add(s.bip70Expiry).Unix()),
		Memo:         inv.Memo,
		PaymentURL:   s.paymentURL(inv.ID),
		MerchantData: []byte(inv.ID),
	}

	request := bip70.PaymentRequest{
		DetailsVersion:    1,
		PkiType:           "none",
		SerializedDetails: details.Marshal(),
	}
	s.signBIP70(&request)

	return &Response{
		ContentType: MediaTypeBIP70Request,
		Body:        request.Marshal(),
	}, nil
}

// BIP70Ack accepts the wallet's Payment message: decode the embedded
// transaction, verify, broadcast, complete, and acknowledge. A failed
// completion only downgrades the memo; the transaction is already on
// the network and cannot be un-broadcast.
func (s *Service) BIP70Ack(ctx context.Context, invoiceID string, body []byte) (*Response, error) {
	payment, err := bip70.UnmarshalPayment(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrDecode, err)
	}
	if len(payment.Transactions) == 0 {
		return nil, fmt.Errorf("%w: payment carries no transaction", status.ErrDecode)
	}

	inv, err := s.orc.GetUnpaidInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	raw := payment.Transactions[0]
	tx, err := services.DecodeTransaction(raw)
	if err != nil {
		return nil, err
	}

	txID, completionErr, err := s.submit(ctx, inv, tx, hex.EncodeToString(raw))
	if err != nil {
		return nil, err
	}

	memo := inv.Memo
	if memo == "" {
		memo = fmt.Sprintf("payment received: %s", txID)
	}
	if completionErr != nil {
		slog.Error("payment completion failed after broadcast",
			"invoice_id", inv.ID, "tx_id", txID, "error", completionErr)
		memo = "payment broadcast, but recording it failed; it will be reconciled"
	}

	ack := bip70.PaymentACK{Payment: payment, Memo: memo}
	return &Response{
		ContentType: MediaTypeBIP70ACK,
		Body:        ack.Marshal(),
	}, nil
}

// signBIP70 attaches an x509+sha256 signature when certificate
// material is configured. Missing or unusable certs leave the request
// unsigned rather than failing: wallets accept pki_type "none", and an
// unpayable invoice is worse than an unsigned request. The warn log is
// the deployment's cue that signing silently degraded.
func (s *Service) signBIP70(request *bip70.PaymentRequest) {
	if s.certFile == "" || s.keyFile == "" {
		return
	}

	pair, err := tls.LoadX509KeyPair(s.certFile, s.keyFile)
	if err != nil {
		slog.Warn("bip70 signing certs unusable, sending unsigned request", "error", err)
		return
	}
	key, ok := pair.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		slog.Warn("bip70 signing key is not RSA, sending unsigned request")
		return
	}

	request.PkiType = "x509+sha256"
	request.PkiData = bip70.X509Certificates{Certificates: pair.Certificate}.Marshal()
	request.Signature = []byte{}

	digest := sha256.Sum256(request.Marshal())
	signature, err := rsa.SignPKCS1v15(nil, key, crypto.SHA256, digest[:])
	if err != nil {
		slog.Warn("bip70 signing failed, sending unsigned request", "error", err)
		request.PkiType = "none"
		request.PkiData = nil
		request.Signature = nil
		return
	}
	request.Signature = signature
}
