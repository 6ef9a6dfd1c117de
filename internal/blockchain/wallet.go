package blockchain

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"raffle/internal/logger"

	"github.com/tonkeeper/tongo/liteapi"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"github.com/tonkeeper/tongo/wallet"
	"go.uber.org/zap"
)

const DefaultConfirmationTimeout = 60 * time.Second

var WalletMap = map[string]int{
	"V1R1":         0,
	"V1R2":         1,
	"V1R3":         2,
	"V2R1":         3,
	"V2R2":         4,
	"V3R1":         5,
	"V3R2":         6,
	"V3R2Lockup":   7,
	"V4R1":         8,
	"V4R2":         9,
	"V5Beta":       10,
	"V5R1":         11,
	"HighLoadV1R1": 12,
	"HighLoadV1R2": 13,
	"HighLoadV2":   14,
	"HighLoadV2R1": 15,
	"HighLoadV2R2": 16,
}

// Sender is the part of a tongo wallet used for payouts.
type Sender interface {
	SendV2(ctx context.Context, waitingConfirmation time.Duration, messages ...wallet.Sendable) (ton.Bits256, error)
}

// WalletPayer pays winners from a treasury wallet.
type WalletPayer struct {
	sender  Sender
	timeout time.Duration
	queryID atomic.Uint64
}

func NewWalletPayer(sender Sender, timeout time.Duration) *WalletPayer {
	if timeout <= 0 {
		timeout = DefaultConfirmationTimeout
	}
	payer := &WalletPayer{sender: sender, timeout: timeout}
	payer.queryID.Store(uint64(time.Now().Unix()))
	return payer
}

func (p *WalletPayer) Pay(ctx context.Context, to ton.AccountID, amount tlb.Grams) error {
	logger.Debug("wallet payer: sending payout to blockchain...", zap.String("to", to.ToRaw()), zap.Uint64("amount", uint64(amount)))

	body, err := PayoutMessage{Amount: amount, Address: to, QueryID: p.queryID.Add(1)}.Body()
	if err != nil {
		return fmt.Errorf("wallet payer: build payout body: %w", err)
	}

	message := wallet.Message{
		Amount:  amount,
		Address: to,
		Bounce:  true,
		Mode:    wallet.DefaultMessageMode,
		Body:    body,
	}

	hash, err := p.sender.SendV2(ctx, p.timeout, message)
	if err != nil {
		return fmt.Errorf("wallet payer: send payout: %w", err)
	}

	logger.Debug("wallet payer: sending payout to blockchain... done", zap.String("hash", fmt.Sprintf("%x", hash[:])))
	return nil
}

// NewWallet restores a treasury wallet from its mnemonic.
func NewWallet(mnemonic string, version string, testnet bool) (*wallet.Wallet, error) {
	logger.Debug("wallet: initializing lite client...", zap.Bool("testnet", testnet))

	var client *liteapi.Client
	var err error
	if testnet {
		client, err = liteapi.NewClientWithDefaultTestnet()
	} else {
		client, err = liteapi.NewClientWithDefaultMainnet()
	}
	if err != nil {
		return nil, err
	}

	index, ok := WalletMap[version]
	if !ok {
		return nil, fmt.Errorf("wallet: unknown wallet version %q", version)
	}

	pk, err := wallet.SeedToPrivateKey(mnemonic)
	if err != nil {
		return nil, err
	}

	treasury, err := wallet.New(pk, wallet.Version(index), client)
	if err != nil {
		return nil, err
	}

	logger.Debug("wallet: initializing... done", zap.String("version", version))
	return &treasury, nil
}
