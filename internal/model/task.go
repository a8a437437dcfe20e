package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrValidation marks input rejected before it reaches the database.
var ErrValidation = errors.New("validation failed")

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority converts a user token into a Priority.
func ParsePriority(token string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(token))) {
	case PriorityLow:
		return PriorityLow, nil
	case PriorityMedium:
		return PriorityMedium, nil
	case PriorityHigh:
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("%w: unknown priority %q", ErrValidation, token)
	}
}

// Category is the area of life a task belongs to.
type Category string

const (
	CategoryWork  Category = "work"
	CategoryHome  Category = "home"
	CategoryStudy Category = "study"
)

// ParseCategory converts a user token into a Category.
func ParseCategory(token string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(token))) {
	case CategoryWork:
		return CategoryWork, nil
	case CategoryHome:
		return CategoryHome, nil
	case CategoryStudy:
		return CategoryStudy, nil
	default:
		return "", fmt.Errorf("%w: unknown category %q", ErrValidation, token)
	}
}

// Task filter states.
const (
	StateCompleted = "completed"
	StatePending   = "pending"
)

// Task represents a single item on the to-do list.
type Task struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Title       string `gorm:"not null"`
	Description string
	DueDate     *time.Time
	Completed   bool      `gorm:"default:false;index"`
	Priority    Priority  `gorm:"size:16;not null;default:medium"`
	Category    *Category `gorm:"size:16"`
	Favorite    bool      `gorm:"default:false"`
	Deleted     bool      `gorm:"default:false;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Reminders   []Reminder `gorm:"foreignKey:TaskID"`
}

// TaskPatch lists the fields of a partial update. Nil fields are left untouched.
// ClearDueDate and ClearCategory unset the optional fields and win over a value.
type TaskPatch struct {
	Title         *string
	Description   *string
	DueDate       *time.Time
	Priority      *Priority
	Category      *Category
	ClearDueDate  bool
	ClearCategory bool
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && p.Priority == nil && p.Category == nil &&
		!p.ClearDueDate && !p.ClearCategory
}

// TaskFilter narrows a listing. Zero values mean the predicate is not applied.
type TaskFilter struct {
	State    string
	Priority *Priority
	Category *Category
}

// ValidateTitle rejects empty and whitespace-only titles.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	return nil
}

// CalendarDate drops the time of day, keeping the date as seen in t's location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
