package storage

import (
	"path/filepath"
	"testing"
	"time"

	"raffle/internal/raffle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/ton"
)

func newTestStorage(t *testing.T) *SqliteStorage {
	t.Helper()
	s, err := NewSqliteStorage(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func account(n byte) ton.AccountID {
	return ton.AccountID{Workchain: 0, Address: [32]byte{n}}
}

func TestSqliteStorage_Entries(t *testing.T) {
	s := newTestStorage(t)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveEntry(&EntryRecord{Round: 1, Player: "a", Amount: 10, CreatedAt: at}))
	require.NoError(t, s.SaveEntry(&EntryRecord{Round: 1, Player: "b", Amount: 10, CreatedAt: at}))
	require.NoError(t, s.SaveEntry(&EntryRecord{Round: 2, Player: "c", Amount: 10, CreatedAt: at}))

	entries, err := s.GetEntries(1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Player)
	assert.Equal(t, "b", entries[1].Player)

	entries, err = s.GetEntries(3)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSqliteStorage_Draws(t *testing.T) {
	s := newTestStorage(t)
	requestedAt := time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC)

	require.NoError(t, s.SaveDrawRequest(&DrawRecord{RequestID: 1, Round: 1, Players: 4, RequestedAt: requestedAt}))
	require.NoError(t, s.SaveDrawRequest(&DrawRecord{RequestID: 2, Round: 2, Players: 1, RequestedAt: requestedAt}))

	t.Run("upsert keeps a single row", func(t *testing.T) {
		require.NoError(t, s.SaveDrawRequest(&DrawRecord{RequestID: 1, Round: 1, Players: 5, RequestedAt: requestedAt}))

		draw, err := s.GetDraw(1)
		require.NoError(t, err)
		assert.Equal(t, 5, draw.Players)
		assert.Nil(t, draw.FulfilledAt)
	})

	t.Run("complete", func(t *testing.T) {
		fulfilledAt := requestedAt.Add(5 * time.Second)
		require.NoError(t, s.CompleteDraw(1, "winner", 40, fulfilledAt))

		draw, err := s.GetDraw(1)
		require.NoError(t, err)
		assert.Equal(t, "winner", draw.Winner)
		assert.Equal(t, uint64(40), draw.Prize)
		require.NotNil(t, draw.FulfilledAt)
		assert.True(t, fulfilledAt.Equal(*draw.FulfilledAt))
	})

	t.Run("re-requested id starts unfulfilled", func(t *testing.T) {
		require.NoError(t, s.SaveDrawRequest(&DrawRecord{RequestID: 1, Round: 3, Players: 2, RequestedAt: requestedAt.Add(time.Hour)}))

		draw, err := s.GetDraw(1)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), draw.Round)
		assert.Equal(t, 2, draw.Players)
		assert.Empty(t, draw.Winner)
		assert.Zero(t, draw.Prize)
		assert.Nil(t, draw.FulfilledAt)
	})

	t.Run("complete unknown", func(t *testing.T) {
		assert.ErrorIs(t, s.CompleteDraw(9, "x", 1, requestedAt), ErrNotFound)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := s.GetDraw(9)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("most recent first", func(t *testing.T) {
		draws, err := s.GetDraws(0)
		require.NoError(t, err)
		require.Len(t, draws, 2)
		assert.Equal(t, uint64(2), draws[0].RequestID)

		draws, err = s.GetDraws(1)
		require.NoError(t, err)
		assert.Len(t, draws, 1)
	})
}

func TestSqliteStorage_LastRound(t *testing.T) {
	s := newTestStorage(t)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	round, err := s.LastRound()
	require.NoError(t, err)
	assert.Zero(t, round)

	require.NoError(t, s.SaveEntry(&EntryRecord{Round: 4, Player: "a", Amount: 10, CreatedAt: at}))
	require.NoError(t, s.SaveDrawRequest(&DrawRecord{RequestID: 1, Round: 3, Players: 1, RequestedAt: at}))

	round, err = s.LastRound()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), round)
}

func TestJournal(t *testing.T) {
	s := newTestStorage(t)
	journal := NewJournal(s)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	journal(raffle.Event{Kind: raffle.EventEntered, Round: 1, Player: account(1), Amount: 10, At: at})
	journal(raffle.Event{Kind: raffle.EventEntered, Round: 1, Player: account(2), Amount: 12, At: at})
	journal(raffle.Event{Kind: raffle.EventDrawRequested, Round: 1, RequestID: 7, Players: 2, At: at.Add(30 * time.Second)})
	journal(raffle.Event{Kind: raffle.EventWinnerPicked, Round: 1, RequestID: 7, Winner: account(2), Amount: 22, At: at.Add(35 * time.Second)})

	entries, err := s.GetEntries(1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, account(2).ToRaw(), entries[1].Player)
	assert.Equal(t, uint64(12), entries[1].Amount)

	draw, err := s.GetDraw(7)
	require.NoError(t, err)
	assert.Equal(t, 2, draw.Players)
	assert.Equal(t, account(2).ToRaw(), draw.Winner)
	assert.Equal(t, uint64(22), draw.Prize)
	require.NotNil(t, draw.FulfilledAt)

	assert.NotPanics(t, func() {
		journal(raffle.Event{Kind: raffle.EventWinnerPicked, RequestID: 99})
		journal(raffle.Event{Kind: "Unknown"})
	})
}
