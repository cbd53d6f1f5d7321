package paypro

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"paygate/internal/status"
)

func TestResolve_RouteTable(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		accept      string
		contentType string
		version     int
		expected    Phase
	}{
		{
			name:     "BIP70 request version 1",
			method:   http.MethodGet,
			accept:   MediaTypeBIP70Request,
			version:  1,
			expected: PhaseBIP70Request,
		},
		{
			name:     "BIP70 request version 2",
			method:   http.MethodGet,
			accept:   MediaTypeBIP70Request,
			version:  2,
			expected: PhaseBIP70Request,
		},
		{
			name:     "JSON v1 payment request",
			method:   http.MethodGet,
			accept:   MediaTypePaymentRequest,
			version:  1,
			expected: PhaseV1Request,
		},
		{
			name:     "JSON v2 payment options",
			method:   http.MethodGet,
			accept:   MediaTypePaymentOptions,
			version:  2,
			expected: PhaseV2Options,
		},
		{
			name:        "BIP70 ack version 1",
			method:      http.MethodPost,
			contentType: MediaTypeBIP70Payment,
			accept:      MediaTypeBIP70ACK,
			version:     1,
			expected:    PhaseBIP70Ack,
		},
		{
			name:        "BIP70 ack version 2",
			method:      http.MethodPost,
			contentType: MediaTypeBIP70Payment,
			accept:      MediaTypeBIP70ACK,
			version:     2,
			expected:    PhaseBIP70Ack,
		},
		{
			name:        "JSON v1 verify",
			method:      http.MethodPost,
			contentType: MediaTypeVerifyPayment,
			version:     1,
			expected:    PhaseV1Verify,
		},
		{
			name:        "JSON v1 pay",
			method:      http.MethodPost,
			contentType: MediaTypePayment,
			version:     1,
			expected:    PhaseV1Pay,
		},
		{
			name:        "JSON v2 request",
			method:      http.MethodPost,
			contentType: MediaTypePaymentRequest,
			version:     2,
			expected:    PhaseV2Request,
		},
		{
			name:        "JSON v2 verify",
			method:      http.MethodPost,
			contentType: MediaTypePaymentVerification,
			version:     2,
			expected:    PhaseV2Verify,
		},
		{
			name:        "JSON v2 pay",
			method:      http.MethodPost,
			contentType: MediaTypePayment,
			version:     2,
			expected:    PhaseV2Pay,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phase, err := Resolve(tt.method, tt.accept, tt.contentType, tt.version)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, phase)
		})
	}
}

func TestResolve_MediaParametersIgnored(t *testing.T) {
	phase, err := Resolve(http.MethodGet, "application/payment-request; charset=utf-8", "", 1)
	assert.NoError(t, err)
	assert.Equal(t, PhaseV1Request, phase)
}

func TestResolve_AcceptList(t *testing.T) {
	phase, err := Resolve(http.MethodGet, MediaTypePaymentOptions+", application/json", "", 2)
	assert.NoError(t, err)
	assert.Equal(t, PhaseV2Options, phase)
}

func TestResolve_PostFallsBackToAccept(t *testing.T) {
	// A wallet posting a BIP70 payment announces the ack type in
	// Accept; the Content-Type alone does not select a phase.
	phase, err := Resolve(http.MethodPost, MediaTypeBIP70ACK, "application/octet-stream", 1)
	assert.NoError(t, err)
	assert.Equal(t, PhaseBIP70Ack, phase)
}

func TestResolve_Unsupported(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		accept      string
		contentType string
		version     int
	}{
		{name: "no headers", method: http.MethodGet, version: 1},
		{name: "plain browser GET", method: http.MethodGet, accept: "text/html", version: 1},
		{name: "v2 options under version 1", method: http.MethodGet, accept: MediaTypePaymentOptions, version: 1},
		{name: "v1 verify under version 2", method: http.MethodPost, contentType: MediaTypeVerifyPayment, version: 2},
		{name: "v2 request under version 1", method: http.MethodPost, contentType: MediaTypePaymentRequest, version: 1},
		{name: "v2 options under version 3", method: http.MethodGet, accept: MediaTypePaymentOptions, version: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phase, err := Resolve(tt.method, tt.accept, tt.contentType, tt.version)
			assert.True(t, errors.Is(err, status.ErrUnsupportedRequest))
			assert.Equal(t, PhaseUnknown, phase)
		})
	}
}

func TestPhase_Protocol(t *testing.T) {
	assert.Equal(t, "bip70", PhaseBIP70Request.Protocol())
	assert.Equal(t, "bip70", PhaseBIP70Ack.Protocol())
	assert.Equal(t, "jppv1", PhaseV1Pay.Protocol())
	assert.Equal(t, "jppv2", PhaseV2Options.Protocol())
	assert.Equal(t, "unknown", PhaseUnknown.Protocol())
}
