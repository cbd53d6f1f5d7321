package models

import (
	"fmt"

	"github.com/gcash/bchd/chaincfg"
	"github.com/gcash/bchutil"
)

// Network identifies the chain an invoice settles on.
type Network string

const (
	NetworkMainnet  Network = "mainnet"
	NetworkTestnet3 Network = "testnet3"
	NetworkRegtest  Network = "regtest"
)

func ParseNetwork(s string) (Network, error) {
	switch Network(s) {
	case NetworkMainnet, NetworkTestnet3, NetworkRegtest:
		return Network(s), nil
	}
	return "", fmt.Errorf("unknown network: %q", s)
}

// ChainParams maps the network to its bchd chain parameters.
func (n Network) ChainParams() *chaincfg.Params {
	switch n {
	case NetworkTestnet3:
		return &chaincfg.TestNet3Params
	case NetworkRegtest:
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

// BIP70Name is the network string carried inside BIP70 PaymentDetails.
func (n Network) BIP70Name() string {
	if n == NetworkMainnet {
		return "main"
	}
	return "test"
}

// JSONName is the network string used by the JSON payment protocols.
func (n Network) JSONName() string {
	switch n {
	case NetworkTestnet3:
		return "test"
	case NetworkRegtest:
		return "regtest"
	default:
		return "main"
	}
}

// DecodeAddress decodes addr under this network's parameters. Cashaddr
// strings are accepted with or without their human-readable prefix,
// legacy base58 is accepted too. An address from another network fails.
func (n Network) DecodeAddress(addr string) (bchutil.Address, error) {
	params := n.ChainParams()
	decoded, err := bchutil.DecodeAddress(addr, params)
	if err != nil {
		return nil, fmt.Errorf("decode address %q for %s: %w", addr, n, err)
	}
	if !decoded.IsForNet(params) {
		return nil, fmt.Errorf("address %q does not belong to %s", addr, n)
	}
	return decoded, nil
}
