package model

import "time"

// Reminder is a scheduled notification about a task.
type Reminder struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	TaskID    uint      `gorm:"index;not null"`
	RemindAt  time.Time `gorm:"index"`
	Notified  bool      `gorm:"default:false"`
	CreatedAt time.Time
}
