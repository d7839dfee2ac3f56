package entity

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

// JobType identifies which execution strategy handles a scheduled job.
type JobType string

const (
	JobTypeHTTP                JobType = "http_request"
	JobTypeSyncYoutubeChannels JobType = "sync_youtube_channels"
	JobTypeSyncTwitterAccounts JobType = "sync_twitter_accounts"
	JobTypeExtractPendingCalls JobType = "extract_pending_calls"
	JobTypeFetchAllPrices      JobType = "fetch_all_prices"
)

// Task execution statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job is a schedulable unit of work.
type Job struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	Type        JobType        `gorm:"not null" json:"type"`
	Payload     datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	RetryPolicy datatypes.JSON `gorm:"type:jsonb" json:"retry_policy"`
	Timeout     int            `json:"timeout"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	Schedules []TaskSchedule `gorm:"foreignKey:JobID" json:"schedules"`
}

// TableName specifies the table name for the Job model.
func (Job) TableName() string {
	return "jobs"
}

// TaskSchedule is a cron schedule attached to a job.
type TaskSchedule struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	JobID          uint         `gorm:"not null" json:"job_id"`
	CronExpression string       `gorm:"not null" json:"cron_expression"`
	IsActive       bool         `gorm:"not null;default:true" json:"is_active"`
	NextExecution  sql.NullTime `json:"next_execution"`
	LastExecution  sql.NullTime `json:"last_execution"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the TaskSchedule model.
func (TaskSchedule) TableName() string {
	return "task_schedules"
}

// TaskExecutionHistory records one dispatched run of a scheduled job. The
// scheduler creates it when publishing and the executor completes it.
type TaskExecutionHistory struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	JobID        uint           `gorm:"not null" json:"job_id"`
	ScheduleID   uint           `json:"schedule_id"`
	Status       string         `gorm:"not null" json:"status"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  sql.NullTime   `json:"completed_at"`
	Output       sql.NullString `json:"output"`
	ErrorMessage sql.NullString `json:"error_message"`
}

// TableName specifies the table name for the TaskExecutionHistory model.
func (TaskExecutionHistory) TableName() string {
	return "task_execution_histories"
}
