package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase/core"

	"paygate/internal/services/paypro"
	"paygate/internal/status"
	"paygate/monitoring"
)

// maxPayproBody bounds protocol POST bodies. The largest legitimate
// payload is one transaction plus JSON/protobuf framing.
const maxPayproBody = 1 << 20

// PayproHandler exposes the single protocol endpoint. Verb and headers
// select the protocol phase; the handler itself knows nothing about
// any protocol beyond moving bytes.
type PayproHandler struct {
	paypro *paypro.Service
}

func NewPayproHandler(service *paypro.Service) *PayproHandler {
	return &PayproHandler{paypro: service}
}

func (h *PayproHandler) Handle(e *core.RequestEvent) error {
	h.serve(e.Response, e.Request, e.Request.PathValue("invoiceId"))
	return nil
}

func (h *PayproHandler) serve(w http.ResponseWriter, r *http.Request, invoiceID string) {
	version := 1
	if raw := r.Header.Get("X-Paypro-Version"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			version = v
		}
	}

	phase, err := paypro.Resolve(r.Method, r.Header.Get("Accept"), r.Header.Get("Content-Type"), version)
	if err != nil {
		monitoring.TrackPayproRequest("unknown", "unknown", "unsupported")
		http.Error(w, "unsupported payment protocol request", http.StatusBadRequest)
		return
	}

	var body []byte
	if r.Method == http.MethodPost {
		body, err = io.ReadAll(io.LimitReader(r.Body, maxPayproBody))
		if err != nil {
			monitoring.TrackPayproRequest(phase.Protocol(), phase.String(), "error")
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
	}

	resp, err := h.paypro.Handle(r.Context(), phase, invoiceID, body)
	if err != nil {
		monitoring.TrackPayproRequest(phase.Protocol(), phase.String(), "error")
		writeProtocolError(w, invoiceID, phase, err)
		return
	}

	monitoring.TrackPayproRequest(phase.Protocol(), phase.String(), "ok")
	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", resp.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.WriteHeader(http.StatusOK)
	w.Write(resp.Body)
}

func writeProtocolError(w http.ResponseWriter, invoiceID string, phase paypro.Phase, err error) {
	slog.Error("payment protocol request failed",
		"invoice_id", invoiceID, "phase", phase.String(), "error", err)

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, status.ErrInvoiceNotFound):
		code = http.StatusNotFound
	case errors.Is(err, status.ErrAlreadyPaid),
		errors.Is(err, status.ErrPaymentInFlight):
		code = http.StatusConflict
	case errors.Is(err, status.ErrDecode),
		errors.Is(err, status.ErrAddressNotFound),
		errors.Is(err, status.ErrAmountMismatch),
		errors.Is(err, status.ErrTooManyTransactions):
		code = http.StatusBadRequest
	case errors.Is(err, status.ErrBroadcast):
		code = http.StatusBadGateway
	}
	http.Error(w, err.Error(), code)
}
