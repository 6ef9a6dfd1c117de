package vrf

import (
	"context"
	"math/big"

	"github.com/tonkeeper/tongo/ton"
)

const MaxRandomWords = 500

// Request describes a randomness request issued by a consumer.
type Request struct {
	KeyHash          ton.Bits256
	SubscriptionID   uint64
	Confirmations    uint16
	CallbackGasLimit uint32
	NumWords         uint32
	Consumer         Consumer
}

// Coordinator accepts randomness requests and answers them later,
// out of band, through the consumer attached to the request.
type Coordinator interface {
	RequestRandomWords(ctx context.Context, request Request) (uint64, error)
}

type Consumer interface {
	FulfillRandomWords(ctx context.Context, requestID uint64, words []*big.Int) error
}
