package queue

import (
	"context"
	"time"

	"github.com/shashiranjanraj/nearcart/pkg/logger"
)

// FailedJobRecord is a job that exhausted its retries. The table is created
// by the database migrations.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	JobType  string    `gorm:"size:255;not null;index" json:"jobType"`
	Payload  string    `gorm:"type:text;not null" json:"payload"`
	Error    string    `gorm:"type:text" json:"error"`
	Attempts int       `gorm:"not null;default:0" json:"attempts"`
	FailedAt time.Time `gorm:"not null" json:"failedAt"`
}

func (FailedJobRecord) TableName() string { return "nearcart_failed_jobs" }

// persistFailed records the failure in memory and, when a DB is configured,
// in nearcart_failed_jobs.
func (m *Manager) persistFailed(ctx context.Context, env envelope, lastErr error, attempts int) {
	now := time.Now().UTC()

	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{
		Type: env.Type, Payload: env.Payload, Err: lastErr, FailedAt: now, Attempts: attempts,
	})
	db := m.db
	m.mu.Unlock()

	if db == nil {
		return
	}

	msg := ""
	if lastErr != nil {
		msg = lastErr.Error()
	}
	record := FailedJobRecord{
		JobType:  env.Type,
		Payload:  string(env.Payload),
		Error:    msg,
		Attempts: attempts,
		FailedAt: now,
	}
	if err := db.WithContext(context.WithoutCancel(ctx)).Create(&record).Error; err != nil {
		logger.Error("queue: persist failed job", "type", env.Type, "error", err)
	}
}

// StoredFailures lists persisted failures, newest first.
func (m *Manager) StoredFailures(ctx context.Context, limit int) ([]FailedJobRecord, error) {
	m.mu.RLock()
	db := m.db
	m.mu.RUnlock()
	if db == nil {
		return nil, nil
	}
	var out []FailedJobRecord
	err := db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}
