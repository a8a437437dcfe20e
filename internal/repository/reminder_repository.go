package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"todo-manager/internal/model"
)

// ReminderRepository stores reminders keyed by their task.
type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *model.Reminder) error {
	if err := r.db.WithContext(ctx).Create(reminder).Error; err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

func (r *ReminderRepository) ListByTask(ctx context.Context, taskID uint) ([]model.Reminder, error) {
	var reminders []model.Reminder
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).
		Order("remind_at ASC, id ASC").
		Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// ListDue returns unsent reminders scheduled at or before now whose task is
// still visible.
func (r *ReminderRepository) ListDue(ctx context.Context, now time.Time) ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := r.db.WithContext(ctx).
		Joins("JOIN tasks ON tasks.id = reminders.task_id").
		Where("reminders.notified = ? AND reminders.remind_at <= ? AND tasks.deleted = ?", false, now, false).
		Order("reminders.remind_at ASC, reminders.id ASC").
		Find(&reminders).Error
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	return reminders, nil
}

func (r *ReminderRepository) MarkNotified(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Model(&model.Reminder{}).Where("id = ?", id).
		Update("notified", true).Error; err != nil {
		return fmt.Errorf("mark reminder notified: %w", err)
	}
	return nil
}

func (r *ReminderRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&model.Reminder{}, id).Error; err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}
