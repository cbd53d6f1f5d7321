package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gcash/bchd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/config"
	"paygate/internal/services"
	"paygate/internal/services/paypro"
	"paygate/internal/status"
	"paygate/models"
)

type stubOrc struct {
	invoices map[string]*models.Invoice
}

func (s *stubOrc) GetInvoice(_ context.Context, id string) (*models.Invoice, error) {
	inv, ok := s.invoices[id]
	if !ok {
		return nil, status.ErrInvoiceNotFound
	}
	return inv, nil
}

func (s *stubOrc) GetUnpaidInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Paid {
		return nil, status.ErrAlreadyPaid
	}
	return inv, nil
}

func (s *stubOrc) OnPayment(context.Context, services.PaymentResult) error { return nil }

type stubBroadcaster struct{}

func (stubBroadcaster) Broadcast(_ context.Context, _ models.Network, tx *wire.MsgTx) (string, error) {
	hash := tx.TxHash()
	return hash.String(), nil
}

func newTestHandler(t *testing.T, invoices ...*models.Invoice) *PayproHandler {
	t.Helper()

	orc := &stubOrc{invoices: map[string]*models.Invoice{}}
	for _, inv := range invoices {
		orc.invoices[inv.ID] = inv
	}

	signer, err := paypro.NewSigner("", "https://pay.example.com")
	require.NoError(t, err)

	svc := paypro.NewService(orc, stubBroadcaster{}, signer, &config.Config{
		BaseURL:       "https://pay.example.com",
		BIP70Expiry:   24 * time.Hour,
		OptionsExpiry: 15 * time.Minute,
	})
	return NewPayproHandler(svc)
}

func testInvoice() *models.Invoice {
	return &models.Invoice{
		ID:      "inv-1",
		Network: models.NetworkRegtest,
		Address: "qfakeaddress",
		Amount:  54321,
		Origin:  models.OriginEvent{Kind: models.OriginTip},
	}
}

func TestPayproHandler_V1Request(t *testing.T) {
	h := newTestHandler(t, testInvoice())

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/inv-1/paypro", nil)
	req.Header.Set("Accept", paypro.MediaTypePaymentRequest)
	rec := httptest.NewRecorder()

	h.serve(rec, req, "inv-1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, paypro.MediaTypePaymentRequest, rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("Content-Length"))
	assert.Contains(t, rec.Body.String(), `"paymentId":"inv-1"`)
}

func TestPayproHandler_V2OptionsSigned(t *testing.T) {
	h := newTestHandler(t, testInvoice())

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/inv-1/paypro", nil)
	req.Header.Set("Accept", paypro.MediaTypePaymentOptions)
	req.Header.Set("X-Paypro-Version", "2")
	rec := httptest.NewRecorder()

	h.serve(rec, req, "inv-1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Signature"))
	assert.NotEmpty(t, rec.Header().Get("Digest"))
}

func TestPayproHandler_UnsupportedHeaders(t *testing.T) {
	h := newTestHandler(t, testInvoice())

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/inv-1/paypro", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	h.serve(rec, req, "inv-1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayproHandler_UnknownInvoice(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/nope/paypro", nil)
	req.Header.Set("Accept", paypro.MediaTypePaymentRequest)
	rec := httptest.NewRecorder()

	h.serve(rec, req, "nope")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPayproHandler_AlreadyPaidConflict(t *testing.T) {
	inv := testInvoice()
	inv.Paid = true
	h := newTestHandler(t, inv)

	body := []byte(`{"currency":"BCH","transactions":[{"tx":"00"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/invoices/inv-1/paypro", bytes.NewReader(body))
	req.Header.Set("Content-Type", paypro.MediaTypePayment)
	req.Header.Set("X-Paypro-Version", "2")
	rec := httptest.NewRecorder()

	h.serve(rec, req, "inv-1")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPayproHandler_TooManyTransactions(t *testing.T) {
	h := newTestHandler(t, testInvoice())

	body := []byte(`{"currency":"BCH","transactions":[{"tx":"00"},{"tx":"00"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/invoices/inv-1/paypro", bytes.NewReader(body))
	req.Header.Set("Content-Type", paypro.MediaTypePayment)
	req.Header.Set("X-Paypro-Version", "2")
	rec := httptest.NewRecorder()

	h.serve(rec, req, "inv-1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPayproHandler_VersionDefaultsToOne(t *testing.T) {
	h := newTestHandler(t, testInvoice())

	// payment-options only exists under version 2; without the header
	// the request must not resolve.
	req := httptest.NewRequest(http.MethodGet, "/api/invoices/inv-1/paypro", nil)
	req.Header.Set("Accept", paypro.MediaTypePaymentOptions)
	rec := httptest.NewRecorder()

	h.serve(rec, req, "inv-1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
