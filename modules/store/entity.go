package store

import "time"

// Entry is one key-value pair in local storage.
type Entry struct {
	Key       string    `gorm:"column:store_key;primarykey;size:191"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName returns the table name for Entry model.
func (Entry) TableName() string {
	return "kv_entries"
}
