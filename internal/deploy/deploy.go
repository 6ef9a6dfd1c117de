package deploy

import (
	"context"
	"errors"
	"time"

	"raffle/internal/config"
	"raffle/internal/logger"
	"raffle/internal/raffle"
	"raffle/internal/vrf"

	"github.com/tonkeeper/tongo/tlb"
	"go.uber.org/zap"
)

const (
	// SubscriptionFundAmount is what a fresh mock subscription is funded with (2 TON).
	SubscriptionFundAmount tlb.Grams = 2_000_000_000

	MockBaseFee    tlb.Grams = 250_000_000
	MockPerWordFee tlb.Grams = 1_000_000
)

var ErrCoordinatorRequired = errors.New("deploy: coordinator is required on live networks")

type Options struct {
	// Coordinator is optional on development networks, where a funded mock is created.
	Coordinator vrf.Coordinator
	Payer       raffle.Payer
	Clock       func() time.Time
	// Round numbers the first round, so a restarted process continues its journal.
	Round       uint64
}

type Deployment struct {
	Network        config.Network
	Raffle         *raffle.Raffle
	Coordinator    vrf.Coordinator
	Mock           *vrf.MockCoordinator
	SubscriptionID uint64
}

func Deploy(ctx context.Context, network config.Network, options Options) (*Deployment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info("deploy: deploying raffle...", zap.String("network", network.Name))

	deployment := &Deployment{
		Network:        network,
		Coordinator:    options.Coordinator,
		SubscriptionID: network.SubscriptionID,
	}

	if network.IsDevelopment() {
		if deployment.Coordinator == nil {
			logger.Debug("deploy: local network detected, deploying mocks...")
			deployment.Mock = vrf.NewMockCoordinator(MockBaseFee, MockPerWordFee)
			deployment.Coordinator = deployment.Mock
		}

		if deployment.Mock != nil {
			deployment.SubscriptionID = deployment.Mock.CreateSubscription()
			if err := deployment.Mock.FundSubscription(deployment.SubscriptionID, SubscriptionFundAmount); err != nil {
				return nil, err
			}
			logger.Debug("deploy: mock subscription funded",
				zap.Uint64("subscriptionID", deployment.SubscriptionID),
				zap.Uint64("amount", uint64(SubscriptionFundAmount)),
			)
		}
	} else if deployment.Coordinator == nil {
		return nil, ErrCoordinatorRequired
	}

	raffleOptions := []raffle.Option{raffle.WithRound(options.Round)}
	if options.Clock != nil {
		raffleOptions = append(raffleOptions, raffle.WithClock(options.Clock))
	}

	engine, err := raffle.New(raffle.Config{
		EntranceFee:      network.EntranceFee,
		Interval:         network.Interval,
		CallbackGasLimit: network.CallbackGasLimit,
		KeyHash:          network.KeyHash,
		SubscriptionID:   deployment.SubscriptionID,
		Confirmations:    network.BlockConfirmations,
	}, deployment.Coordinator, options.Payer, raffleOptions...)
	if err != nil {
		return nil, err
	}
	deployment.Raffle = engine

	logger.Info("deploy: deploying raffle... done",
		zap.String("network", network.Name),
		zap.Uint64("subscriptionID", deployment.SubscriptionID),
	)
	return deployment, nil
}
