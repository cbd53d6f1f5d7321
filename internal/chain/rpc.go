package chain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gcash/bchd/chaincfg/chainhash"
	"github.com/gcash/bchd/rpcclient"
	"github.com/gcash/bchd/wire"
	"github.com/gcash/bchutil"

	"paygate/config"
	"paygate/models"
)

// RPCProvider talks JSON-RPC to one bchd/bitcoind node per network.
type RPCProvider struct {
	clients map[models.Network]*rpcclient.Client
}

// NewRPCProvider dials the nodes named in cfg. Networks with an empty
// host are skipped; submitting against them fails with a clear error.
func NewRPCProvider(cfg *config.Config) (*RPCProvider, error) {
	nodes := map[models.Network]config.NodeConfig{
		models.NetworkMainnet:  cfg.MainnetNode,
		models.NetworkTestnet3: cfg.TestnetNode,
		models.NetworkRegtest:  cfg.RegtestNode,
	}

	p := &RPCProvider{clients: make(map[models.Network]*rpcclient.Client)}
	for network, node := range nodes {
		if node.Host == "" {
			continue
		}
		client, err := rpcclient.New(&rpcclient.ConnConfig{
			Host:         node.Host,
			User:         node.User,
			Pass:         node.Pass,
			HTTPPostMode: true,
			DisableTLS:   true,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("dial %s node: %w", network, err)
		}
		p.clients[network] = client
		slog.Info("chain node configured", "network", network, "host", node.Host)
	}
	return p, nil
}

func (p *RPCProvider) client(network models.Network) (*rpcclient.Client, error) {
	client, ok := p.clients[network]
	if !ok {
		return nil, fmt.Errorf("no node configured for network %s", network)
	}
	return client, nil
}

func (p *RPCProvider) SendRawTransaction(_ context.Context, network models.Network, tx *wire.MsgTx) (*chainhash.Hash, error) {
	client, err := p.client(network)
	if err != nil {
		return nil, err
	}
	return client.SendRawTransaction(tx, false)
}

func (p *RPCProvider) GetRawTransaction(_ context.Context, network models.Network, txID *chainhash.Hash) (*bchutil.Tx, error) {
	client, err := p.client(network)
	if err != nil {
		return nil, err
	}
	return client.GetRawTransaction(txID)
}

func (p *RPCProvider) Close(_ context.Context) error {
	for _, client := range p.clients {
		client.Shutdown()
	}
	return nil
}
