package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"taskapi/internal/models"
)

// MemoryTaskRepository is an in-memory implementation of TaskRepository.
type MemoryTaskRepository struct {
	tasks  map[int64]models.Task
	nextID int64
	mu     sync.RWMutex
}

// NewMemoryTaskRepository creates a new instance of MemoryTaskRepository.
func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{
		tasks: make(map[int64]models.Task),
	}
}

// GetAll returns all tasks ordered by ID.
func (r *MemoryTaskRepository) GetAll(_ context.Context) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	taskList := make([]models.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		taskList = append(taskList, t)
	}
	sort.Slice(taskList, func(i, j int) bool { return taskList[i].ID < taskList[j].ID })
	return taskList, nil
}

// GetByID returns a copy of the task with the given ID.
func (r *MemoryTaskRepository) GetByID(_ context.Context, id int64) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task with ID %d: %w", id, ErrNotFound)
	}
	return &task, nil
}

// Create assigns the next ID and stores a copy of task.
func (r *MemoryTaskRepository) Create(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	task.ID = r.nextID
	r.tasks[task.ID] = *task
	return nil
}

// Update overwrites the mutable fields of an existing task.
func (r *MemoryTaskRepository) Update(_ context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tasks[task.ID]
	if !ok {
		return fmt.Errorf("task with ID %d: %w", task.ID, ErrNotFound)
	}
	stored.Title = task.Title
	stored.Description = task.Description
	stored.IsCompleted = task.IsCompleted
	stored.DateModified = task.DateModified
	stored.UserModified = task.UserModified
	stored.MachineModified = task.MachineModified
	r.tasks[task.ID] = stored
	return nil
}

// Delete removes a task by its ID.
func (r *MemoryTaskRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return fmt.Errorf("task with ID %d: %w", id, ErrNotFound)
	}
	delete(r.tasks, id)
	return nil
}
