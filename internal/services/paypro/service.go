package paypro

import (
	"context"
	"fmt"
	"time"

	"github.com/gcash/bchd/wire"

	"paygate/config"
	"paygate/internal/services"
	"paygate/models"
)

// Orchestrator is the single completion interface every codec depends
// on. Codecs never talk to the store or the event bus directly.
type Orchestrator interface {
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	GetUnpaidInvoice(ctx context.Context, id string) (*models.Invoice, error)
	OnPayment(ctx context.Context, result services.PaymentResult) error
}

// Broadcaster submits a verified transaction to the network.
type Broadcaster interface {
	Broadcast(ctx context.Context, network models.Network, tx *wire.MsgTx) (string, error)
}

// Response is a fully built protocol reply. Headers carry the JPPv2
// integrity set when the phase requires it.
type Response struct {
	ContentType string
	Body        []byte
	Headers     map[string]string
}

// Service hosts the three protocol codecs. All of them share the same
// verify → broadcast → complete pipeline; only payload shapes differ.
type Service struct {
	orc         Orchestrator
	broadcaster Broadcaster
	signer      *Signer

	baseURL       string
	bip70Expiry   time.Duration
	optionsExpiry time.Duration
	certFile      string
	keyFile       string
}

func NewService(orc Orchestrator, broadcaster Broadcaster, signer *Signer, cfg *config.Config) *Service {
	return &Service{
		orc:         orc,
		broadcaster: broadcaster,
		signer:      signer,

		baseURL:       cfg.BaseURL,
		bip70Expiry:   cfg.BIP70Expiry,
		optionsExpiry: cfg.OptionsExpiry,
		certFile:      cfg.BIP70CertFile,
		keyFile:       cfg.BIP70KeyFile,
	}
}

// Handle runs one resolved protocol phase against an invoice.
func (s *Service) Handle(ctx context.Context, phase Phase, invoiceID string, body []byte) (*Response, error) {
	switch phase {
	case PhaseBIP70Request:
		return s.BIP70Request(ctx, invoiceID)
	case PhaseBIP70Ack:
		return s.BIP70Ack(ctx, invoiceID, body)
	case PhaseV1Request:
		return s.V1Request(ctx, invoiceID)
	case PhaseV1Verify, PhaseV1Pay:
		return s.V1Pay(ctx, invoiceID, body)
	case PhaseV2Options:
		return s.V2Options(ctx, invoiceID)
	case PhaseV2Request:
		return s.V2Request(ctx, invoiceID)
	case PhaseV2Verify:
		return s.V2Verify(ctx, invoiceID, body)
	case PhaseV2Pay:
		return s.V2Pay(ctx, invoiceID, body)
	}
	return nil, fmt.Errorf("unhandled phase %v", phase)
}

func (s *Service) paymentURL(invoiceID string) string {
	return fmt.Sprintf("%s/api/invoices/%s/paypro", s.baseURL, invoiceID)
}

// submit runs the pipeline shared by every paying phase: verify the
// transaction against the invoice, broadcast it, then complete the
// payment through the orchestrator. The completion error is returned
// separately: by the time completion runs, the transaction is already
// on the network and the codec still owes the wallet an acknowledgment.
func (s *Service) submit(ctx context.Context, inv *models.Invoice, tx *wire.MsgTx, txHex string) (txID string, completionErr error, err error) {
	vout, err := services.FindPayingOutput(tx, inv.Network, inv.Address, inv.Amount)
	if err != nil {
		return "", nil, err
	}

	txID, err = s.broadcaster.Broadcast(ctx, inv.Network, tx)
	if err != nil {
		return "", nil, err
	}

	completionErr = s.orc.OnPayment(ctx, services.PaymentResult{
		InvoiceID: inv.ID,
		TxID:      txID,
		Vout:      vout,
		Address:   inv.Address,
		Amount:    inv.Amount,
		TxHex:     txHex,
	})
	return txID, completionErr, nil
}
