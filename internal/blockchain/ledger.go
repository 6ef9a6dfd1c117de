package blockchain

import (
	"context"
	"errors"
	"sync"

	"raffle/internal/logger"

	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

var ErrTransferRejected = errors.New("blockchain: transfer rejected by recipient")

// Ledger is an in-memory balance book used as the payout transport on
// development networks.
type Ledger struct {
	mu       sync.Mutex
	balances map[ton.AccountID]tlb.Grams
	rejects  map[ton.AccountID]bool
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[ton.AccountID]tlb.Grams),
		rejects:  make(map[ton.AccountID]bool),
	}
}

// Reject makes every later transfer to account fail until Accept is called.
func (l *Ledger) Reject(account ton.AccountID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rejects[account] = true
}

func (l *Ledger) Accept(account ton.AccountID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rejects, account)
}

func (l *Ledger) Pay(ctx context.Context, to ton.AccountID, amount tlb.Grams) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rejects[to] {
		logger.Debug("ledger: transfer rejected", zap.String("to", to.ToRaw()))
		return ErrTransferRejected
	}
	l.balances[to] += amount

	logger.Debug("ledger: transfer... done", zap.String("to", to.ToRaw()), zap.Uint64("amount", uint64(amount)))
	return nil
}

func (l *Ledger) BalanceOf(account ton.AccountID) tlb.Grams {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account]
}
