package raffle

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"sync"
	"time"

	"raffle/internal/logger"
	"raffle/internal/vrf"

	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

const (
	NumWords             = 1
	DefaultConfirmations = 3
)

type State uint8

const (
	Open State = iota
	Calculating
)

func (s State) String() string {
	switch s {
	case Open:
		return "OPEN"
	case Calculating:
		return "CALCULATING"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Config is fixed at construction and never changes afterwards.
type Config struct {
	EntranceFee      tlb.Grams
	Interval         time.Duration
	CallbackGasLimit uint32
	KeyHash          ton.Bits256
	SubscriptionID   uint64
	Confirmations    uint16
}

// Payer moves the pooled balance to the winner.
type Payer interface {
	Pay(ctx context.Context, to ton.AccountID, amount tlb.Grams) error
}

type drawRequest struct {
	id        uint64
	winner    ton.AccountID
	hasWinner bool
}

// Snapshot is a point-in-time copy of the engine state.
type Snapshot struct {
	State          State
	Round          uint64
	EntranceFee    tlb.Grams
	Interval       time.Duration
	Players        int
	Balance        tlb.Grams
	LastTimestamp  time.Time
	Elapsed        time.Duration
	RecentWinner   *ton.AccountID
	PendingRequest *uint64
}

type Raffle struct {
	mu          sync.Mutex
	config      Config
	coordinator vrf.Coordinator
	payer       Payer
	now         func() time.Time
	listeners   []Listener

	state         State
	players       []ton.AccountID
	balance       tlb.Grams
	lastTimestamp time.Time
	round         uint64
	pending       *drawRequest
	recentWinner  *ton.AccountID
}

type Option func(*Raffle)

func WithClock(now func() time.Time) Option {
	return func(r *Raffle) {
		r.now = now
	}
}

// WithRound sets the number of the first round. Zero keeps the default of 1.
func WithRound(round uint64) Option {
	return func(r *Raffle) {
		if round > 0 {
			r.round = round
		}
	}
}

func New(config Config, coordinator vrf.Coordinator, payer Payer, options ...Option) (*Raffle, error) {
	if config.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if coordinator == nil || payer == nil {
		return nil, fmt.Errorf("%w: coordinator and payer are required", ErrInvalidConfig)
	}
	if config.Confirmations == 0 {
		config.Confirmations = DefaultConfirmations
	}

	r := &Raffle{
		config:      config,
		coordinator: coordinator,
		payer:       payer,
		now:         time.Now,
		state:       Open,
		round:       1,
	}
	for _, option := range options {
		option(r)
	}
	r.lastTimestamp = r.now()

	logger.Info("raffle: created",
		zap.Uint64("entranceFee", uint64(config.EntranceFee)),
		zap.Duration("interval", config.Interval),
		zap.Uint64("subscriptionID", config.SubscriptionID),
	)
	return r, nil
}

func (r *Raffle) Subscribe(listener Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Raffle) emit(event Event) {
	event.Round = r.round
	event.At = r.now()
	for _, listener := range r.listeners {
		listener(event)
	}
}

// Enter registers player for the current round. The whole payment joins the pool.
func (r *Raffle) Enter(player ton.AccountID, payment tlb.Grams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Open {
		return ErrNotOpen
	}
	if payment < r.config.EntranceFee {
		return fmt.Errorf("%w: paid %d, fee is %d", ErrInsufficientPayment, payment, r.config.EntranceFee)
	}
	if payment > math.MaxUint64-r.balance {
		return fmt.Errorf("%w: paid %d, pool holds %d", ErrBalanceOverflow, payment, r.balance)
	}

	r.players = append(r.players, player)
	r.balance += payment

	logger.Debug("raffle: player entered", zap.String("player", player.ToRaw()), zap.Int("players", len(r.players)))
	r.emit(Event{Kind: EventEntered, Player: player, Amount: payment})
	return nil
}

// IsDrawDue reports whether RequestDraw would succeed right now.
func (r *Raffle) IsDrawDue() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isDrawDue()
}

func (r *Raffle) CheckUpkeep() (bool, Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isDrawDue(), r.snapshot()
}

func (r *Raffle) isDrawDue() bool {
	return r.state == Open &&
		len(r.players) > 0 &&
		r.balance > 0 &&
		r.now().Sub(r.lastTimestamp) >= r.config.Interval
}

// RequestDraw closes the round and asks the coordinator for randomness.
// Nothing changes if the coordinator refuses the request.
func (r *Raffle) RequestDraw(ctx context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Open {
		return 0, ErrNotOpen
	}
	if !r.isDrawDue() {
		return 0, &UpkeepNotNeededError{
			State:   r.state,
			Balance: r.balance,
			Players: len(r.players),
			Elapsed: r.now().Sub(r.lastTimestamp),
		}
	}

	requestID, err := r.coordinator.RequestRandomWords(ctx, vrf.Request{
		KeyHash:          r.config.KeyHash,
		SubscriptionID:   r.config.SubscriptionID,
		Confirmations:    r.config.Confirmations,
		CallbackGasLimit: r.config.CallbackGasLimit,
		NumWords:         NumWords,
		Consumer:         r,
	})
	if err != nil {
		logger.Warn("raffle: random words request failed", zap.Error(err))
		return 0, fmt.Errorf("raffle: request random words: %w", err)
	}

	r.state = Calculating
	r.pending = &drawRequest{id: requestID}

	logger.Info("raffle: draw requested", zap.Uint64("requestID", requestID), zap.Uint64("round", r.round))
	r.emit(Event{Kind: EventDrawRequested, RequestID: requestID, Players: len(r.players)})
	return requestID, nil
}

// FulfillDraw picks words[0] mod len(players) as the winner and pays out the pool.
//
// If the payout fails the draw stays in progress with the winner pinned to the
// request, so a later call for the same request pays the same account.
func (r *Raffle) FulfillDraw(ctx context.Context, requestID uint64, words []*big.Int) (ton.AccountID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending == nil || r.pending.id != requestID {
		logger.Warn("raffle: fulfillment for unknown request", zap.Uint64("requestID", requestID))
		return ton.AccountID{}, ErrUnknownRequest
	}

	if !r.pending.hasWinner {
		if len(words) == 0 || words[0] == nil {
			return ton.AccountID{}, ErrNoRandomWords
		}
		if len(r.players) == 0 {
			return ton.AccountID{}, ErrNoPlayers
		}

		index := new(big.Int).Mod(words[0], big.NewInt(int64(len(r.players))))
		r.pending.winner = r.players[index.Int64()]
		r.pending.hasWinner = true

		logger.Debug("raffle: winner selected",
			zap.Uint64("requestID", requestID),
			zap.Int64("index", index.Int64()),
			zap.String("winner", r.pending.winner.ToRaw()),
		)
	}

	return r.payout(ctx)
}

func (r *Raffle) FulfillRandomWords(ctx context.Context, requestID uint64, words []*big.Int) error {
	_, err := r.FulfillDraw(ctx, requestID, words)
	return err
}

// RetryPayout re-attempts a payout that failed during FulfillDraw.
func (r *Raffle) RetryPayout(ctx context.Context) (ton.AccountID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending == nil || !r.pending.hasWinner {
		return ton.AccountID{}, ErrNoPendingPayout
	}
	return r.payout(ctx)
}

func (r *Raffle) payout(ctx context.Context) (ton.AccountID, error) {
	request := r.pending
	winner := request.winner
	amount := r.balance

	if err := r.payer.Pay(ctx, winner, amount); err != nil {
		logger.Error("raffle: payout failed",
			zap.Uint64("requestID", request.id),
			zap.String("winner", winner.ToRaw()),
			zap.Uint64("amount", uint64(amount)),
			zap.Error(err),
		)
		return ton.AccountID{}, &PayoutError{RequestID: request.id, Winner: winner, Amount: amount, Err: err}
	}

	r.recentWinner = &winner
	r.players = nil
	r.balance = 0
	r.lastTimestamp = r.now()
	r.state = Open
	r.pending = nil

	logger.Info("raffle: winner picked",
		zap.Uint64("requestID", request.id),
		zap.Uint64("round", r.round),
		zap.String("winner", winner.ToRaw()),
		zap.Uint64("prize", uint64(amount)),
	)
	r.emit(Event{Kind: EventWinnerPicked, Winner: winner, Amount: amount, RequestID: request.id})
	r.round++
	return winner, nil
}

func (r *Raffle) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Raffle) Config() Config {
	return r.config
}

func (r *Raffle) EntranceFee() tlb.Grams {
	return r.config.EntranceFee
}

func (r *Raffle) Interval() time.Duration {
	return r.config.Interval
}

func (r *Raffle) KeyHash() ton.Bits256 {
	return r.config.KeyHash
}

func (r *Raffle) SubscriptionID() uint64 {
	return r.config.SubscriptionID
}

func (r *Raffle) CallbackGasLimit() uint32 {
	return r.config.CallbackGasLimit
}

func (r *Raffle) Player(index int) (ton.AccountID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.players) {
		return ton.AccountID{}, ErrPlayerIndex
	}
	return r.players[index], nil
}

// Players returns a copy of the entrant list in entry order.
func (r *Raffle) Players() []ton.AccountID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ton.AccountID(nil), r.players...)
}

func (r *Raffle) NumberOfPlayers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

func (r *Raffle) RecentWinner() (ton.AccountID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recentWinner == nil {
		return ton.AccountID{}, false
	}
	return *r.recentWinner, true
}

func (r *Raffle) LastTimestamp() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastTimestamp
}

func (r *Raffle) Balance() tlb.Grams {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balance
}

func (r *Raffle) Round() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.round
}

func (r *Raffle) PendingRequest() (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending == nil {
		return 0, false
	}
	return r.pending.id, true
}

func (r *Raffle) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Raffle) snapshot() Snapshot {
	snapshot := Snapshot{
		State:         r.state,
		Round:         r.round,
		EntranceFee:   r.config.EntranceFee,
		Interval:      r.config.Interval,
		Players:       len(r.players),
		Balance:       r.balance,
		LastTimestamp: r.lastTimestamp,
		Elapsed:       r.now().Sub(r.lastTimestamp),
	}
	if r.recentWinner != nil {
		winner := *r.recentWinner
		snapshot.RecentWinner = &winner
	}
	if r.pending != nil {
		id := r.pending.id
		snapshot.PendingRequest = &id
	}
	return snapshot
}
