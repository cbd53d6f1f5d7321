package paypro

import (
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"paygate/internal/status"
)

// Media types of the three wire protocols.
const (
	MediaTypeBIP70Request = "application/bitcoincash-paymentrequest"
	MediaTypeBIP70Payment = "application/bitcoincash-payment"
	MediaTypeBIP70ACK     = "application/bitcoincash-paymentack"

	MediaTypePaymentRequest      = "application/payment-request"
	MediaTypePaymentOptions      = "application/payment-options"
	MediaTypeVerifyPayment       = "application/verify-payment"
	MediaTypePayment             = "application/payment"
	MediaTypePaymentVerification = "application/payment-verification"
)

// Phase is one (protocol, step) pair the dispatcher can select.
type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseBIP70Request
	PhaseBIP70Ack
	PhaseV1Request
	PhaseV1Verify
	PhaseV1Pay
	PhaseV2Options
	PhaseV2Request
	PhaseV2Verify
	PhaseV2Pay
)

func (p Phase) Protocol() string {
	switch p {
	case PhaseBIP70Request, PhaseBIP70Ack:
		return "bip70"
	case PhaseV1Request, PhaseV1Verify, PhaseV1Pay:
		return "jppv1"
	case PhaseV2Options, PhaseV2Request, PhaseV2Verify, PhaseV2Pay:
		return "jppv2"
	}
	return "unknown"
}

func (p Phase) String() string {
	switch p {
	case PhaseBIP70Request:
		return "bip70-request"
	case PhaseBIP70Ack:
		return "bip70-ack"
	case PhaseV1Request:
		return "v1-request"
	case PhaseV1Verify:
		return "v1-verify"
	case PhaseV1Pay:
		return "v1-pay"
	case PhaseV2Options:
		return "v2-options"
	case PhaseV2Request:
		return "v2-request"
	case PhaseV2Verify:
		return "v2-verify"
	case PhaseV2Pay:
		return "v2-pay"
	}
	return "unknown"
}

type routeKey struct {
	method string
	media  string
	v2     bool
}

// routes is the one place protocol selection lives. Rows whose version
// column is "any" appear twice, once per version bucket.
var routes = map[routeKey]Phase{
	{http.MethodGet, MediaTypeBIP70Request, false}: PhaseBIP70Request,
	{http.MethodGet, MediaTypeBIP70Request, true}:  PhaseBIP70Request,
	{http.MethodGet, MediaTypePaymentRequest, false}: PhaseV1Request,
	{http.MethodGet, MediaTypePaymentOptions, true}:  PhaseV2Options,

	{http.MethodPost, MediaTypeBIP70ACK, false}: PhaseBIP70Ack,
	{http.MethodPost, MediaTypeBIP70ACK, true}:  PhaseBIP70Ack,
	{http.MethodPost, MediaTypeVerifyPayment, false}:       PhaseV1Verify,
	{http.MethodPost, MediaTypePayment, false}:             PhaseV1Pay,
	{http.MethodPost, MediaTypePaymentRequest, true}:       PhaseV2Request,
	{http.MethodPost, MediaTypePaymentVerification, true}:  PhaseV2Verify,
	{http.MethodPost, MediaTypePayment, true}:              PhaseV2Pay,
}

// Resolve picks the protocol phase for a request. GET requests are
// matched on Accept, POST requests on Content-Type with Accept as the
// fallback (BIP70 wallets announce the ack type there). An absent
// version header means protocol version 1.
func Resolve(method, accept, contentType string, version int) (Phase, error) {
	v2 := version == 2

	var candidates []string
	if method == http.MethodGet {
		candidates = []string{normalizeMedia(accept)}
	} else {
		candidates = []string{normalizeMedia(contentType), normalizeMedia(accept)}
	}

	for _, media := range candidates {
		if media == "" {
			continue
		}
		if phase, ok := routes[routeKey{method, media, v2}]; ok {
			return phase, nil
		}
	}

	slog.Warn("unsupported payment protocol request",
		"method", method, "accept", accept, "content_type", contentType, "version", version)
	return PhaseUnknown, status.ErrUnsupportedRequest
}

// normalizeMedia strips parameters and list tails from a header value.
func normalizeMedia(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if i := strings.IndexByte(value, ','); i >= 0 {
		value = value[:i]
	}
	media, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return media
}
