package models

import "time"

// Task event types.
const (
	TaskCreated = "task.created"
	TaskUpdated = "task.updated"
	TaskDeleted = "task.deleted"
)

// TaskEvent is published after a task mutation succeeds.
type TaskEvent struct {
	Type       string    `json:"type"`
	TaskID     int64     `json:"taskId"`
	Username   string    `json:"username"`
	Machine    string    `json:"machine"`
	OccurredAt time.Time `json:"occurredAt"`
}
