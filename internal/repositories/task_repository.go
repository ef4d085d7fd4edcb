package repositories

import (
	"context"

	"taskapi/internal/models"
)

// TaskRepository defines the interface for task data access.
type TaskRepository interface {
	GetAll(ctx context.Context) ([]models.Task, error)
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	// Update writes the mutable and modification fields of task. Creation fields
	// are left as stored.
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id int64) error
}
