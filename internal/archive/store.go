package archive

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Store interface {
	Save(ctx context.Context, records ...EventRecord) error
	Close() error
}

// GormStore writes records to postgres.
type GormStore struct {
	db *gorm.DB
}

func OpenGorm(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}
	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Save is idempotent per event id.
func (s *GormStore) Save(ctx context.Context, records ...EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&records).Error
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// MemoryStore is the archive used when no database is configured.
type MemoryStore struct {
	mu      sync.Mutex
	limit   int
	records []EventRecord
	seen    map[string]struct{}
}

// NewMemoryStore keeps at most limit records, dropping the oldest. limit <= 0 means unbounded.
func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{limit: limit, seen: make(map[string]struct{})}
}

func (s *MemoryStore) Save(_ context.Context, records ...EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if _, dup := s.seen[r.ID]; dup {
			continue
		}
		s.seen[r.ID] = struct{}{}
		s.records = append(s.records, r)
	}
	if over := len(s.records) - s.limit; s.limit > 0 && over > 0 {
		for _, r := range s.records[:over] {
			delete(s.seen, r.ID)
		}
		s.records = slices.Delete(s.records, 0, over)
	}
	return nil
}

func (s *MemoryStore) Records() []EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

func (s *MemoryStore) Close() error { return nil }
