package status

import "errors"

var (
	// ErrDecode marks malformed transaction or protocol payload bytes.
	ErrDecode = errors.New("paypro: malformed payload")

	// ErrAddressNotFound means no transaction output pays the invoice address.
	ErrAddressNotFound = errors.New("validation: address not found")

	// ErrAmountMismatch means the matched output does not pay the exact amount.
	ErrAmountMismatch = errors.New("validation: amount mismatch")

	// ErrBroadcast means the node rejected the transaction and the
	// existence fallback also came up empty.
	ErrBroadcast = errors.New("broadcast: transaction rejected")

	// ErrUnsupportedRequest means no (protocol, phase) matched the request headers.
	ErrUnsupportedRequest = errors.New("paypro: unsupported request")

	// ErrTooManyTransactions rejects JPPv2 verify/pay bodies carrying more
	// than one transaction, or a currency other than BCH.
	ErrTooManyTransactions = errors.New("paypro: too many transactions")

	ErrInvoiceNotFound = errors.New("invoice: not found")
	ErrAlreadyPaid     = errors.New("invoice: already paid")

	// ErrPaymentInFlight means another submission currently holds the
	// per-invoice payment lock.
	ErrPaymentInFlight = errors.New("invoice: payment already in flight")
)
