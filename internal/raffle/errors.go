package raffle

import (
	"errors"
	"fmt"
	"time"

	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
)

var (
	ErrInvalidConfig       = errors.New("raffle: invalid config")
	ErrInsufficientPayment = errors.New("raffle: insufficient payment")
	ErrBalanceOverflow     = errors.New("raffle: balance overflow")
	ErrNotOpen             = errors.New("raffle: not open")
	ErrUnknownRequest      = errors.New("raffle: unknown request")
	ErrNoPlayers           = errors.New("raffle: no players")
	ErrNoRandomWords       = errors.New("raffle: no random words")
	ErrPayoutFailed        = errors.New("raffle: payout failed")
	ErrNoPendingPayout     = errors.New("raffle: no pending payout")
	ErrPlayerIndex         = errors.New("raffle: player index out of range")
)

// UpkeepNotNeededError is returned by RequestDraw when a draw is not due yet.
type UpkeepNotNeededError struct {
	State   State
	Balance tlb.Grams
	Players int
	Elapsed time.Duration
}

func (e *UpkeepNotNeededError) Error() string {
	return fmt.Sprintf("raffle: upkeep not needed (state=%s balance=%d players=%d elapsed=%s)",
		e.State, e.Balance, e.Players, e.Elapsed)
}

// PayoutError reports a prize transfer the recipient or transport refused.
// The draw stays in progress until the payout is retried successfully.
type PayoutError struct {
	RequestID uint64
	Winner    ton.AccountID
	Amount    tlb.Grams
	Err       error
}

func (e *PayoutError) Error() string {
	return fmt.Sprintf("raffle: payout of %d to %s for request %d failed: %v",
		e.Amount, e.Winner.ToRaw(), e.RequestID, e.Err)
}

func (e *PayoutError) Unwrap() error {
	return e.Err
}

func (e *PayoutError) Is(target error) bool {
	return target == ErrPayoutFailed
}
