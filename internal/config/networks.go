package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
)

var ErrUnknownNetwork = errors.New("config: unknown network")

// Network holds the deployment parameters of one network.
type Network struct {
	Name               string
	Development        bool
	Testnet            bool
	EntranceFee        tlb.Grams
	Interval           time.Duration
	CallbackGasLimit   uint32
	KeyHash            ton.Bits256
	SubscriptionID     uint64
	BlockConfirmations uint16
}

func (n Network) IsDevelopment() bool {
	return n.Development
}

const defaultKeyHash = "474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c"

var networks = map[string]Network{
	"local": {
		Name:               "local",
		Development:        true,
		EntranceFee:        10_000_000,
		Interval:           30 * time.Second,
		CallbackGasLimit:   500_000,
		KeyHash:            mustParseKeyHash(defaultKeyHash),
		BlockConfirmations: 1,
	},
	"testnet": {
		Name:               "testnet",
		Testnet:            true,
		EntranceFee:        10_000_000,
		Interval:           30 * time.Second,
		CallbackGasLimit:   500_000,
		KeyHash:            mustParseKeyHash(defaultKeyHash),
		BlockConfirmations: 6,
	},
	"mainnet": {
		Name:               "mainnet",
		EntranceFee:        100_000_000,
		Interval:           24 * time.Hour,
		CallbackGasLimit:   500_000,
		KeyHash:            mustParseKeyHash(defaultKeyHash),
		BlockConfirmations: 6,
	},
}

// LookupNetwork returns a copy of the named network parameters.
func LookupNetwork(name string) (Network, error) {
	network, ok := networks[name]
	if !ok {
		return Network{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
	}
	return network, nil
}

func ParseKeyHash(s string) (ton.Bits256, error) {
	var keyHash ton.Bits256

	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return keyHash, fmt.Errorf("config: key hash: %w", err)
	}
	if len(raw) != len(keyHash) {
		return keyHash, fmt.Errorf("config: key hash must be %d bytes, got %d", len(keyHash), len(raw))
	}

	copy(keyHash[:], raw)
	return keyHash, nil
}

func mustParseKeyHash(s string) ton.Bits256 {
	keyHash, err := ParseKeyHash(s)
	if err != nil {
		panic(err)
	}
	return keyHash
}
