package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// KVEntry is one row of the kv_entries table.
type KVEntry struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string {
	return "kv_entries"
}

// PostgresStore keeps keys in a Postgres table through gorm.
type PostgresStore struct {
	db *gorm.DB
}

// ConnectPostgresWithRetry opens a Postgres connection with retry and migrates kv_entries.
func ConnectPostgresWithRetry(dsn string, attempts int, delay time.Duration) (*PostgresStore, error) {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err == nil {
			return NewPostgresStore(db)
		}

		lastErr = err
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("db connect failed after %d attempts: %w", attempts, lastErr)
}

// NewPostgresStore wraps an open gorm handle.
func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(key string) (string, bool, error) {
	var e KVEntry
	err := s.db.First(&e, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return e.Value, true, nil
}

func (s *PostgresStore) Put(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&KVEntry{Key: key, Value: value}).Error
}

func (s *PostgresStore) Delete(key string) (bool, error) {
	res := s.db.Delete(&KVEntry{}, "key = ?", key)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
