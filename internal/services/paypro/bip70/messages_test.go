package bip70

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentDetails_RoundTrip(t *testing.T) {
	details := PaymentDetails{
		Network: "test",
		Outputs: []Output{
			{Amount: 54321, Script: []byte{0x76, 0xa9, 0x14}},
		},
		Time:         1700000000,
		Expires:      1700086400,
		Memo:         "coffee fund",
		PaymentURL:   "https://pay.example.com/api/invoices/abc123/paypro",
		MerchantData: []byte("abc123"),
	}

	decoded, err := UnmarshalPaymentDetails(details.Marshal())
	require.NoError(t, err)
	assert.Equal(t, details, decoded)
}

func TestPaymentDetails_NetworkDefaultsToMain(t *testing.T) {
	details := PaymentDetails{
		Outputs: []Output{{Amount: 1000, Script: []byte{0x51}}},
		Time:    1700000000,
	}

	decoded, err := UnmarshalPaymentDetails(details.Marshal())
	require.NoError(t, err)
	assert.Equal(t, "main", decoded.Network)
}

func TestPaymentRequest_RoundTrip(t *testing.T) {
	details := PaymentDetails{
		Network: "main",
		Outputs: []Output{{Amount: 54321, Script: []byte{0x76, 0xa9}}},
		Time:    1700000000,
	}
	request := PaymentRequest{
		DetailsVersion:    1,
		PkiType:           "none",
		SerializedDetails: details.Marshal(),
	}

	decoded, err := UnmarshalPaymentRequest(request.Marshal())
	require.NoError(t, err)
	assert.Equal(t, uint32(1), decoded.DetailsVersion)
	assert.Equal(t, "none", decoded.PkiType)

	innerDetails, err := UnmarshalPaymentDetails(decoded.SerializedDetails)
	require.NoError(t, err)
	assert.Equal(t, uint64(54321), innerDetails.Outputs[0].Amount)
}

func TestPaymentRequest_SignedRoundTrip(t *testing.T) {
	request := PaymentRequest{
		DetailsVersion:    1,
		PkiType:           "x509+sha256",
		PkiData:           X509Certificates{Certificates: [][]byte{{0xde, 0xad}}}.Marshal(),
		SerializedDetails: []byte{0x18, 0x01},
		Signature:         []byte{0x01, 0x02, 0x03},
	}

	decoded, err := UnmarshalPaymentRequest(request.Marshal())
	require.NoError(t, err)
	assert.Equal(t, request, decoded)
}

func TestPayment_RoundTrip(t *testing.T) {
	payment := Payment{
		MerchantData: []byte("abc123"),
		Transactions: [][]byte{{0x01, 0x00, 0x00, 0x00}, {0x02, 0x00}},
		RefundTo:     []Output{{Amount: 500, Script: []byte{0x76}}},
		Memo:         "thanks",
	}

	decoded, err := UnmarshalPayment(payment.Marshal())
	require.NoError(t, err)
	assert.Equal(t, payment, decoded)
}

func TestPaymentACK_RoundTrip(t *testing.T) {
	ack := PaymentACK{
		Payment: Payment{
			MerchantData: []byte("abc123"),
			Transactions: [][]byte{{0x01, 0x02}},
		},
		Memo: "payment received",
	}

	decoded, err := UnmarshalPaymentACK(ack.Marshal())
	require.NoError(t, err)
	assert.Equal(t, ack, decoded)
}

func TestUnmarshalPayment_Garbage(t *testing.T) {
	_, err := UnmarshalPayment([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}

func TestUnmarshalPayment_UnknownFieldsSkipped(t *testing.T) {
	// A payment with an extra field the decoder does not know about
	// must still decode; wallets may send newer fields.
	base := Payment{Transactions: [][]byte{{0x01}}}.Marshal()
	extra := append(base, 0x62, 0x03, 'a', 'b', 'c') // field 12, bytes type

	decoded, err := UnmarshalPayment(extra)
	require.NoError(t, err)
	assert.Len(t, decoded.Transactions, 1)
}
