package storage

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("storage: record not found")

type Storage interface {
	// entries
	SaveEntry(entry *EntryRecord) error
	GetEntries(round uint64) ([]*EntryRecord, error)

	// draws
	SaveDrawRequest(draw *DrawRecord) error
	CompleteDraw(requestID uint64, winner string, prize uint64, fulfilledAt time.Time) error
	GetDraw(requestID uint64) (*DrawRecord, error)
	GetDraws(limit int) ([]*DrawRecord, error)

	LastRound() (uint64, error)
}
