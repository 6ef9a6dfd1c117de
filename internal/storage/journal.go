package storage

import (
	"raffle/internal/logger"
	"raffle/internal/raffle"

	"go.uber.org/zap"
)

// NewJournal returns a listener that records every engine notification.
// Write failures are logged and never reach the engine.
func NewJournal(s Storage) raffle.Listener {
	return func(event raffle.Event) {
		var err error

		switch event.Kind {
		case raffle.EventEntered:
			err = s.SaveEntry(&EntryRecord{
				Round:     event.Round,
				Player:    event.Player.ToRaw(),
				Amount:    uint64(event.Amount),
				CreatedAt: event.At,
			})
		case raffle.EventDrawRequested:
			err = s.SaveDrawRequest(&DrawRecord{
				RequestID:   event.RequestID,
				Round:       event.Round,
				Players:     event.Players,
				RequestedAt: event.At,
			})
		case raffle.EventWinnerPicked:
			err = s.CompleteDraw(event.RequestID, event.Winner.ToRaw(), uint64(event.Amount), event.At)
		default:
			logger.Warn("journal: unknown event kind", zap.String("kind", string(event.Kind)))
			return
		}

		if err != nil {
			logger.Error("journal: cannot record event",
				zap.String("kind", string(event.Kind)),
				zap.Uint64("round", event.Round),
				zap.Error(err),
			)
		}
	}
}
