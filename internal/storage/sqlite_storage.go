package storage

import (
	"errors"
	"time"

	"raffle/internal/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type SqliteStorage struct {
	db *gorm.DB
}

func NewSqliteStorage(path string) (*SqliteStorage, error) {

	logger.Debug("initializing database...", zap.String("path", path))
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&EntryRecord{},
		&DrawRecord{},
	)
	if err != nil {
		return nil, err
	}

	logger.Debug("initializing database... done")
	return &SqliteStorage{
		db: db,
	}, nil
}

func (s *SqliteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SqliteStorage) SaveEntry(entry *EntryRecord) error {
	logger.Debug("saving entry...", zap.String("player", entry.Player), zap.Uint64("round", entry.Round))

	if err := s.db.Create(entry).Error; err != nil {
		return err
	}

	logger.Debug("saving entry... done")
	return nil
}

func (s *SqliteStorage) GetEntries(round uint64) ([]*EntryRecord, error) {

	var entries []*EntryRecord
	err := s.db.Where("round = ?", round).Order("id").Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (s *SqliteStorage) SaveDrawRequest(draw *DrawRecord) error {
	logger.Debug("saving draw request...", zap.Uint64("requestID", draw.RequestID))

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "request_id"}},
		DoUpdates: append(
			clause.AssignmentColumns([]string{"round", "players", "requested_at"}),
			clause.Assignments(map[string]any{"winner": "", "prize": 0, "fulfilled_at": nil})...,
		),
	}).Create(draw).Error
	if err != nil {
		return err
	}

	logger.Debug("saving draw request... done")
	return nil
}

func (s *SqliteStorage) CompleteDraw(requestID uint64, winner string, prize uint64, fulfilledAt time.Time) error {
	logger.Debug("completing draw...", zap.Uint64("requestID", requestID))

	tx := s.db.Model(&DrawRecord{}).
		Where("request_id = ?", requestID).
		Updates(map[string]any{
			"winner":       winner,
			"prize":        prize,
			"fulfilled_at": fulfilledAt,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}

	logger.Debug("completing draw... done")
	return nil
}

func (s *SqliteStorage) GetDraw(requestID uint64) (*DrawRecord, error) {

	var draw DrawRecord
	err := s.db.Where("request_id = ?", requestID).First(&draw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &draw, nil
}

// LastRound returns the highest round recorded in the journal, or 0 when it is empty.
func (s *SqliteStorage) LastRound() (uint64, error) {

	var entryRound, drawRound uint64
	if err := s.db.Model(&EntryRecord{}).Select("COALESCE(MAX(round), 0)").Scan(&entryRound).Error; err != nil {
		return 0, err
	}
	if err := s.db.Model(&DrawRecord{}).Select("COALESCE(MAX(round), 0)").Scan(&drawRound).Error; err != nil {
		return 0, err
	}

	return max(entryRound, drawRound), nil
}

// GetDraws returns the most recent draws first.
func (s *SqliteStorage) GetDraws(limit int) ([]*DrawRecord, error) {

	var draws []*DrawRecord
	query := s.db.Order("request_id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&draws).Error; err != nil {
		return nil, err
	}

	return draws, nil
}
