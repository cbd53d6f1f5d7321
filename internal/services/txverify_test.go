package services

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/gcash/bchd/bchec"
	"github.com/gcash/bchd/chaincfg/chainhash"
	"github.com/gcash/bchd/txscript"
	"github.com/gcash/bchd/wire"
	"github.com/gcash/bchutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/status"
	"paygate/models"
)

// newTestAddress returns a fresh p2pkh address for the network, plus
// its output script.
func newTestAddress(t *testing.T, network models.Network) (string, []byte) {
	t.Helper()

	key, err := bchec.NewPrivateKey(bchec.S256())
	require.NoError(t, err)

	hash := bchutil.Hash160(key.PubKey().SerializeCompressed())
	addr, err := bchutil.NewAddressPubKeyHash(hash, network.ChainParams())
	require.NoError(t, err)

	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return addr.EncodeAddress(), script
}

func newTestTx(outputs ...*wire.TxOut) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, 0), nil))
	for _, out := range outputs {
		tx.AddTxOut(out)
	}
	return tx
}

func TestDecodeTransaction_RoundTrip(t *testing.T) {
	_, script := newTestAddress(t, models.NetworkRegtest)
	tx := newTestTx(wire.NewTxOut(54321, script))

	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))

	decoded, err := DecodeTransaction(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, tx.TxHash(), decoded.TxHash())
}

func TestDecodeTransaction_Garbage(t *testing.T) {
	_, err := DecodeTransaction([]byte("not a transaction"))
	assert.True(t, errors.Is(err, status.ErrDecode))
}

func TestDecodeTransactionHex(t *testing.T) {
	_, script := newTestAddress(t, models.NetworkRegtest)
	tx := newTestTx(wire.NewTxOut(1000, script))

	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))

	decoded, err := DecodeTransactionHex(hex.EncodeToString(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, tx.TxHash(), decoded.TxHash())

	_, err = DecodeTransactionHex("zz")
	assert.True(t, errors.Is(err, status.ErrDecode))
}

func TestFindPayingOutput_Match(t *testing.T) {
	addr, script := newTestAddress(t, models.NetworkRegtest)
	_, otherScript := newTestAddress(t, models.NetworkRegtest)

	tx := newTestTx(
		wire.NewTxOut(999, otherScript),
		wire.NewTxOut(54321, script),
	)

	vout, err := FindPayingOutput(tx, models.NetworkRegtest, addr, 54321)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), vout)
}

func TestFindPayingOutput_AmountExact(t *testing.T) {
	addr, script := newTestAddress(t, models.NetworkRegtest)

	for _, delta := range []int64{-1, 1} {
		tx := newTestTx(wire.NewTxOut(54321+delta, script))

		_, err := FindPayingOutput(tx, models.NetworkRegtest, addr, 54321)
		assert.True(t, errors.Is(err, status.ErrAmountMismatch), "delta %d", delta)
	}
}

func TestFindPayingOutput_AddressNotFound(t *testing.T) {
	addr, _ := newTestAddress(t, models.NetworkRegtest)
	_, otherScript := newTestAddress(t, models.NetworkRegtest)

	tx := newTestTx(wire.NewTxOut(54321, otherScript))

	_, err := FindPayingOutput(tx, models.NetworkRegtest, addr, 54321)
	assert.True(t, errors.Is(err, status.ErrAddressNotFound))
}

func TestFindPayingOutput_PrefixInsensitive(t *testing.T) {
	// The invoice may store the cashaddr with its human-readable
	// prefix while the comparison goes through decoded scripts.
	addr, script := newTestAddress(t, models.NetworkRegtest)
	prefixed := models.NetworkRegtest.ChainParams().CashAddressPrefix + ":" + addr

	tx := newTestTx(wire.NewTxOut(54321, script))

	vout, err := FindPayingOutput(tx, models.NetworkRegtest, prefixed, 54321)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), vout)
}

func TestFindPayingOutput_BadAddress(t *testing.T) {
	tx := newTestTx()

	_, err := FindPayingOutput(tx, models.NetworkRegtest, "garbage", 1)
	assert.True(t, errors.Is(err, status.ErrAddressNotFound))
}
