package chain

import (
	"context"

	"github.com/gcash/bchd/chaincfg/chainhash"
	"github.com/gcash/bchd/wire"
	"github.com/gcash/bchutil"

	"paygate/models"
)

// Provider is the gateway's view of a blockchain node. It is consumed
// by the broadcaster only; nothing in this core queries chain state
// beyond the broadcast-fallback existence check.
type Provider interface {
	// SendRawTransaction submits a signed transaction for network propagation.
	SendRawTransaction(ctx context.Context, network models.Network, tx *wire.MsgTx) (*chainhash.Hash, error)

	// GetRawTransaction looks a transaction up by id.
	GetRawTransaction(ctx context.Context, network models.Network, txID *chainhash.Hash) (*bchutil.Tx, error)

	// Close releases node connections.
	Close(ctx context.Context) error
}
