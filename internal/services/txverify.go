package services

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/gcash/bchd/txscript"
	"github.com/gcash/bchd/wire"

	"paygate/internal/status"
	"paygate/models"
)

// DecodeTransaction deserializes raw transaction bytes.
func DecodeTransaction(raw []byte) (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrDecode, err)
	}
	return tx, nil
}

// DecodeTransactionHex deserializes a hex-encoded transaction.
func DecodeTransactionHex(s string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrDecode, err)
	}
	return DecodeTransaction(raw)
}

// FindPayingOutput checks that one output of tx pays exactly amount
// satoshis to address on the given network, and returns that output's
// index. Address comparison goes through decoded script payloads, so a
// wallet using the legacy base58 form of a cashaddr invoice address
// (or omitting the cashaddr prefix) still matches. The first matching
// output wins; its amount must be exact, no tolerance.
//
// Shared by all three protocol codecs.
func FindPayingOutput(tx *wire.MsgTx, network models.Network, address string, amount int64) (uint32, error) {
	want, err := network.DecodeAddress(address)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", status.ErrAddressNotFound, err)
	}
	wantScript, err := txscript.PayToAddrScript(want)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", status.ErrAddressNotFound, err)
	}

	matched := -1
	for i, out := range tx.TxOut {
		if bytes.Equal(out.PkScript, wantScript) {
			matched = i
			break
		}
	}
	if matched < 0 {
		slog.Warn("no output pays the invoice address",
			"network", network, "address", address, "outputs", len(tx.TxOut))
		return 0, status.ErrAddressNotFound
	}

	if got := tx.TxOut[matched].Value; got != amount {
		slog.Warn("output amount does not match invoice",
			"network", network, "address", address, "want", amount, "got", got, "vout", matched)
		return 0, status.ErrAmountMismatch
	}

	return uint32(matched), nil
}
