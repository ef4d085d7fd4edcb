package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"taskapi/internal/apperror"
	"taskapi/internal/models"
	"taskapi/internal/repositories"
)

// auditFieldLength is the column width of the audit stamp fields.
const auditFieldLength = 50

// Caller is the identity a request acts as, resolved once by the transport layer.
type Caller struct {
	Username string
}

// EventPublisher delivers task events to interested consumers.
type EventPublisher interface {
	PublishTaskEvent(event models.TaskEvent) error
}

// TaskService handles business logic related to tasks and stamps every mutation
// with who made it, from which machine, and when.
type TaskService struct {
	repo      repositories.TaskRepository
	publisher EventPublisher
	now       func() time.Time
	hostname  func() (string, error)
}

// NewTaskService creates a new TaskService. publisher may be nil.
func NewTaskService(repo repositories.TaskRepository, publisher EventPublisher) *TaskService {
	return &TaskService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
		hostname:  os.Hostname,
	}
}

// GetAllTasks retrieves all tasks.
func (s *TaskService) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, apperror.NewInternalError("failed to list tasks", err)
	}
	return tasks, nil
}

// GetTaskByID retrieves a single task. The bool is false when no task has that ID.
func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (*models.Task, bool, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, apperror.NewInternalError(fmt.Sprintf("failed to get task %d", id), err)
	}
	return task, true, nil
}

// CreateTask stores a new task stamped with the caller, the machine and the time.
func (s *TaskService) CreateTask(ctx context.Context, caller Caller, input models.TaskInput) (*models.Task, error) {
	task := &models.Task{
		Title:          input.Title,
		Description:    input.Description,
		IsCompleted:    input.IsCompleted,
		DateCreated:    s.now().UTC(),
		UserCreated:    clip(caller.Username),
		MachineCreated: s.machine(),
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, apperror.NewInternalError("failed to create task", err)
	}
	s.publish(models.TaskCreated, task.ID, task.UserCreated, task.MachineCreated, task.DateCreated)
	return task, nil
}

// UpdateTask overlays input onto an existing task and stamps the modification. The
// creation stamp is left untouched. The bool is false when no task has that ID.
func (s *TaskService) UpdateTask(ctx context.Context, caller Caller, id int64, input models.TaskInput) (*models.Task, bool, error) {
	task, found, err := s.GetTaskByID(ctx, id)
	if err != nil || !found {
		return nil, found, err
	}

	modified := s.now().UTC()
	user := clip(caller.Username)
	machine := s.machine()

	task.Title = input.Title
	task.Description = input.Description
	task.IsCompleted = input.IsCompleted
	task.DateModified = &modified
	task.UserModified = &user
	task.MachineModified = &machine

	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Deleted between the read and the write.
			return nil, false, nil
		}
		return nil, false, apperror.NewInternalError(fmt.Sprintf("failed to update task %d", id), err)
	}
	s.publish(models.TaskUpdated, task.ID, user, machine, modified)
	return task, true, nil
}

// DeleteTask removes a task. It returns false when no task has that ID.
func (s *TaskService) DeleteTask(ctx context.Context, caller Caller, id int64) (bool, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, nil
		}
		return false, apperror.NewInternalError(fmt.Sprintf("failed to delete task %d", id), err)
	}
	s.publish(models.TaskDeleted, id, clip(caller.Username), s.machine(), s.now().UTC())
	return true, nil
}

func (s *TaskService) machine() string {
	name, err := s.hostname()
	if err != nil || name == "" {
		return "unknown"
	}
	return clip(name)
}

// publish is best effort: a broker failure is logged and the mutation still succeeds.
func (s *TaskService) publish(eventType string, taskID int64, username, machine string, at time.Time) {
	if s.publisher == nil {
		return
	}
	event := models.TaskEvent{
		Type:       eventType,
		TaskID:     taskID,
		Username:   username,
		Machine:    machine,
		OccurredAt: at,
	}
	if err := s.publisher.PublishTaskEvent(event); err != nil {
		log.Printf("Warning: failed to publish %s event for task %d: %v", eventType, taskID, err)
	}
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= auditFieldLength {
		return s
	}
	return string(r[:auditFieldLength])
}
