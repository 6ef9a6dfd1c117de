package keeper

import (
	"context"
	"time"

	"raffle/internal/logger"

	"go.uber.org/zap"
)

// Engine is the upkeep surface of the raffle.
type Engine interface {
	IsDrawDue() bool
	RequestDraw(ctx context.Context) (uint64, error)
}

type Keeper struct {
	engine Engine
	every  time.Duration
}

func New(engine Engine, every time.Duration) *Keeper {
	return &Keeper{
		engine: engine,
		every:  every,
	}
}

// Tick requests a draw when one is due.
func (k *Keeper) Tick(ctx context.Context) (uint64, bool, error) {
	if !k.engine.IsDrawDue() {
		return 0, false, nil
	}

	logger.Debug("keeper: upkeep needed, requesting draw...")
	requestID, err := k.engine.RequestDraw(ctx)
	if err != nil {
		return 0, false, err
	}

	logger.Info("keeper: requesting draw... done", zap.Uint64("requestID", requestID))
	return requestID, true, nil
}

// Run ticks until ctx is cancelled. Failed requests are retried on the next tick.
func (k *Keeper) Run(ctx context.Context) {
	ticker := time.NewTicker(k.every)
	defer ticker.Stop()

	logger.Info("keeper: started", zap.Duration("every", k.every))
	for {
		select {
		case <-ctx.Done():
			logger.Info("keeper: stopped")
			return
		case <-ticker.C:
			if _, _, err := k.Tick(ctx); err != nil {
				logger.Warn("keeper: draw request failed", zap.Error(err))
			}
		}
	}
}
