package repository

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/taskboard/internal/domain"
)

// KVRepository is the durable mirror contract: a plain string key-value store.
type KVRepository interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set overwrites the value stored under key.
	Set(ctx context.Context, key, value string) error
}

// gormKVRepository implements KVRepository on top of a GORM table
type gormKVRepository struct {
	db *gorm.DB
}

// NewGormKVRepository creates a KV repository backed by the kv_entries table.
func NewGormKVRepository(db *gorm.DB) KVRepository {
	return &gormKVRepository{db: db}
}

func (r *gormKVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var entry domain.KVEntry
	result := r.db.WithContext(ctx).Where("key = ?", key).First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, result.Error
	}
	return entry.Value, true, nil
}

// Set upserts the row so a key is always fully overwritten, never appended.
func (r *gormKVRepository) Set(ctx context.Context, key, value string) error {
	entry := domain.KVEntry{Key: key, Value: value}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry)
	return result.Error
}

// MemoryKVRepository keeps values in process memory. The zero value is not
// usable; call NewMemoryKVRepository.
type MemoryKVRepository struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemoryKVRepository() *MemoryKVRepository {
	return &MemoryKVRepository{m: make(map[string]string)}
}

func (r *MemoryKVRepository) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.m[key]
	return v, ok, nil
}

func (r *MemoryKVRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key] = value
	return nil
}

// Health reports the in-memory store as always up.
func (r *MemoryKVRepository) Health() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[string]string{
		"status":  "up",
		"storage": "memory",
		"keys":    strconv.Itoa(len(r.m)),
	}
}
