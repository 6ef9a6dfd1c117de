package raffle

import (
	"time"

	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
)

type EventKind string

const (
	EventEntered       EventKind = "RaffleEnter"
	EventDrawRequested EventKind = "RequestedRaffleWinner"
	EventWinnerPicked  EventKind = "WinnerPicked"
)

// Event is a notification emitted after a successful mutation.
//
// Player and Amount are set for EventEntered, RequestID and Players for
// EventDrawRequested, Winner, Amount and RequestID for EventWinnerPicked.
type Event struct {
	Kind      EventKind
	Round     uint64
	Player    ton.AccountID
	Winner    ton.AccountID
	Amount    tlb.Grams
	RequestID uint64
	Players   int
	At        time.Time
}

// Listener receives events synchronously while the engine is locked,
// so it must not call back into the engine.
type Listener func(Event)
