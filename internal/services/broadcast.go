package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gcash/bchd/chaincfg/chainhash"
	"github.com/gcash/bchd/wire"

	"paygate/internal/chain"
	"paygate/internal/status"
	"paygate/models"
	"paygate/monitoring"
	"paygate/utils"
)

// Broadcaster submits transactions to the network node. Wallets retry
// payment submissions, so a node rejection is followed by an existence
// check: a transaction the network already knows counts as broadcast.
type Broadcaster struct {
	chain chain.Provider
	cb    *utils.CircuitBreaker
}

func NewBroadcaster(provider chain.Provider) *Broadcaster {
	return &Broadcaster{
		chain: provider,
		cb:    utils.NewCircuitBreaker("chain-node"),
	}
}

// Broadcast returns the transaction id on success. The original node
// error is preserved when the fallback also comes up empty.
func (b *Broadcaster) Broadcast(ctx context.Context, network models.Network, tx *wire.MsgTx) (string, error) {
	result, sendErr := b.cb.Execute(ctx, func() (interface{}, error) {
		return b.chain.SendRawTransaction(ctx, network, tx)
	})
	if sendErr == nil {
		return result.(*chainhash.Hash).String(), nil
	}

	// The node refused the transaction. If it already knows it (a
	// duplicate submission), treat that as success.
	txID := tx.TxHash()
	if _, lookupErr := b.chain.GetRawTransaction(ctx, network, &txID); lookupErr == nil {
		slog.Info("transaction already known to network",
			"network", network, "tx_id", txID.String())
		monitoring.TrackBroadcastFallback(string(network))
		return txID.String(), nil
	}

	slog.Error("broadcast failed", "network", network, "tx_id", txID.String(), "error", sendErr)
	return "", fmt.Errorf("%w: %v", status.ErrBroadcast, sendErr)
}
