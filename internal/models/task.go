package models

import "time"

// Task is a to-do item together with its audit stamp.
type Task struct {
	ID              int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Title           string     `json:"title" gorm:"type:varchar(50);not null"`
	Description     string     `json:"description" gorm:"type:varchar(100)"`
	IsCompleted     bool       `json:"isCompleted"`
	DateCreated     time.Time  `json:"dateCreated"`
	UserCreated     string     `json:"userCreated" gorm:"type:varchar(50)"`
	MachineCreated  string     `json:"machineCreated" gorm:"type:varchar(50)"`
	DateModified    *time.Time `json:"dateModified"`
	UserModified    *string    `json:"userModified" gorm:"type:varchar(50)"`
	MachineModified *string    `json:"machineModified" gorm:"type:varchar(50)"`
}

// TaskInput is the body of a create or update request. Audit fields are not accepted
// from callers.
type TaskInput struct {
	Title       string `json:"title" validate:"required,max=50"`
	Description string `json:"description" validate:"omitempty,max=100"`
	IsCompleted bool   `json:"isCompleted"`
}
