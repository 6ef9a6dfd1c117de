package blockchain

import (
	"context"
	"errors"
	"time"

	"raffle/internal/logger"

	"github.com/tonkeeper/tonapi-go"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"
)

var rateLimitDelay = 500 * time.Millisecond

type Func[T any] func() (T, error)

// rateLimitRetry repeats fn while the API answers 429, until ctx is done.
func rateLimitRetry[T any](ctx context.Context, fn Func[T]) (T, error) {
	for {
		result, err := fn()
		if err != nil {
			var e *tonapi.ErrorStatusCode
			if errors.As(err, &e) && e.StatusCode == 429 {
				select {
				case <-ctx.Done():
					return result, ctx.Err()
				case <-time.After(rateLimitDelay):
				}
				continue
			}
		}

		return result, err
	}
}

// AccountGetter is the tonapi call the client depends on.
type AccountGetter interface {
	GetAccount(ctx context.Context, params tonapi.GetAccountParams) (*tonapi.Account, error)
}

type Client struct {
	api AccountGetter
}

func NewClient(url string, token string) (*Client, error) {
	if url == "" {
		url = tonapi.TonApiURL
	}

	logger.Debug("tonapi client: initializing...", zap.String("url", url))
	api, err := tonapi.NewClient(url, tonapi.WithToken(token))
	if err != nil {
		return nil, err
	}

	return &Client{api: api}, nil
}

func NewClientWithAPI(api AccountGetter) *Client {
	return &Client{api: api}
}

func (c *Client) AccountBalance(ctx context.Context, account ton.AccountID) (tlb.Grams, error) {
	result, err := rateLimitRetry(ctx, func() (*tonapi.Account, error) {
		return c.api.GetAccount(ctx, tonapi.GetAccountParams{AccountID: account.ToRaw()})
	})
	if err != nil {
		return 0, err
	}

	balance := result.GetBalance()
	if balance < 0 {
		balance = 0
	}
	return tlb.Grams(balance), nil
}
