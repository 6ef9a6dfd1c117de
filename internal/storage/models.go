package storage

import "time"

type EntryRecord struct {
	ID        int64     `gorm:"primaryKey"`
	Round     uint64    `gorm:"index;not null"`
	Player    string    `gorm:"index;not null"`
	Amount    uint64    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type DrawRecord struct {
	RequestID   uint64     `gorm:"primaryKey;autoIncrement:false"`
	Round       uint64     `gorm:"index;not null"`
	Players     int        `gorm:"not null"`
	RequestedAt time.Time  `gorm:"not null"`
	Winner      string     `gorm:"default:''"`
	Prize       uint64     `gorm:"default:0"`
	FulfilledAt *time.Time `gorm:"default:null"`
}
