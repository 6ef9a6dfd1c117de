package vrf

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"raffle/internal/logger"

	"github.com/tonkeeper/tongo/tlb"
	"go.uber.org/zap"
)

var (
	ErrInvalidSubscription = errors.New("vrf: invalid subscription")
	ErrInvalidRandomWords  = errors.New("vrf: invalid number of random words")
	ErrInvalidConsumer     = errors.New("vrf: missing consumer")
	ErrNonexistentRequest  = errors.New("vrf: nonexistent request")
	ErrInsufficientBalance = errors.New("vrf: insufficient subscription balance")
)

type Subscription struct {
	ID      uint64
	Balance tlb.Grams
}

type pendingRequest struct {
	request   Request
	createdAt time.Time
}

// MockCoordinator is a local stand-in for a randomness oracle. It keeps
// subscriptions and pending requests in memory and answers them when told to.
type MockCoordinator struct {
	mu            sync.Mutex
	baseFee       tlb.Grams
	perWordFee    tlb.Grams
	nextSubID     uint64
	nextRequestID uint64
	subscriptions map[uint64]*Subscription
	requests      map[uint64]*pendingRequest
}

func NewMockCoordinator(baseFee tlb.Grams, perWordFee tlb.Grams) *MockCoordinator {
	return &MockCoordinator{
		baseFee:       baseFee,
		perWordFee:    perWordFee,
		nextSubID:     1,
		nextRequestID: 1,
		subscriptions: make(map[uint64]*Subscription),
		requests:      make(map[uint64]*pendingRequest),
	}
}

func (m *MockCoordinator) CreateSubscription() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSubID
	m.nextSubID++
	m.subscriptions[id] = &Subscription{ID: id}

	logger.Debug("vrf mock: subscription created", zap.Uint64("subscriptionID", id))
	return id
}

func (m *MockCoordinator) FundSubscription(id uint64, amount tlb.Grams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	subscription, ok := m.subscriptions[id]
	if !ok {
		return ErrInvalidSubscription
	}
	subscription.Balance += amount

	logger.Debug("vrf mock: subscription funded", zap.Uint64("subscriptionID", id), zap.Uint64("balance", uint64(subscription.Balance)))
	return nil
}

func (m *MockCoordinator) Subscription(id uint64) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subscription, ok := m.subscriptions[id]
	if !ok {
		return Subscription{}, ErrInvalidSubscription
	}
	return *subscription, nil
}

func (m *MockCoordinator) RequestRandomWords(ctx context.Context, request Request) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subscriptions[request.SubscriptionID]; !ok {
		return 0, ErrInvalidSubscription
	}
	if request.NumWords == 0 || request.NumWords > MaxRandomWords {
		return 0, ErrInvalidRandomWords
	}
	if request.Consumer == nil {
		return 0, ErrInvalidConsumer
	}

	id := m.nextRequestID
	m.nextRequestID++
	m.requests[id] = &pendingRequest{request: request, createdAt: time.Now()}

	logger.Debug("vrf mock: random words requested",
		zap.Uint64("requestID", id),
		zap.Uint64("subscriptionID", request.SubscriptionID),
		zap.Uint32("numWords", request.NumWords),
	)
	return id, nil
}

// Pending returns the ids of requests not yet fulfilled, oldest first.
func (m *MockCoordinator) Pending() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]uint64, 0, len(m.requests))
	for id := range m.requests {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// FulfillRandomWords answers a pending request with words derived from its id.
func (m *MockCoordinator) FulfillRandomWords(ctx context.Context, requestID uint64) error {
	return m.fulfill(ctx, requestID, nil)
}

func (m *MockCoordinator) FulfillRandomWordsWithOverride(ctx context.Context, requestID uint64, words []*big.Int) error {
	if len(words) == 0 {
		return ErrInvalidRandomWords
	}
	return m.fulfill(ctx, requestID, words)
}

func (m *MockCoordinator) fulfill(ctx context.Context, requestID uint64, words []*big.Int) error {
	m.mu.Lock()
	pending, ok := m.requests[requestID]
	if !ok {
		m.mu.Unlock()
		return ErrNonexistentRequest
	}

	request := pending.request
	if words == nil {
		words = deriveWords(requestID, request.NumWords)
	}

	payment := m.baseFee + m.perWordFee*tlb.Grams(len(words))
	subscription := m.subscriptions[request.SubscriptionID]
	if subscription.Balance < payment {
		m.mu.Unlock()
		return ErrInsufficientBalance
	}
	// the fee stays reserved while the consumer runs without the lock
	subscription.Balance -= payment
	m.mu.Unlock()

	if err := request.Consumer.FulfillRandomWords(ctx, requestID, words); err != nil {
		m.mu.Lock()
		subscription.Balance += payment
		m.mu.Unlock()

		logger.Warn("vrf mock: consumer rejected fulfillment", zap.Uint64("requestID", requestID), zap.Error(err))
		return fmt.Errorf("vrf: fulfill request %d: %w", requestID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.requests, requestID)

	logger.Debug("vrf mock: random words fulfilled", zap.Uint64("requestID", requestID), zap.Uint64("payment", uint64(payment)))
	return nil
}

// Run fulfils every pending request on each tick until ctx is cancelled.
func (m *MockCoordinator) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("vrf mock: stopped")
			return
		case <-ticker.C:
			for _, id := range m.Pending() {
				if err := m.FulfillRandomWords(ctx, id); err != nil {
					logger.Error("vrf mock: fulfillment failed", zap.Uint64("requestID", id), zap.Error(err))
				}
			}
		}
	}
}

func deriveWords(requestID uint64, count uint32) []*big.Int {
	words := make([]*big.Int, count)
	var seed [12]byte
	binary.BigEndian.PutUint64(seed[:8], requestID)
	for i := range words {
		binary.BigEndian.PutUint32(seed[8:], uint32(i))
		sum := sha256.Sum256(seed[:])
		words[i] = new(big.Int).SetBytes(sum[:])
	}
	return words
}
