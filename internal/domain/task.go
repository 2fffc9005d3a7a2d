package domain

import "time"

// Task is a user-created board entry. Description is kept for the stored
// format and is always empty.
type Task struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// KVEntry is a single row of the durable key-value mirror.
type KVEntry struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}
