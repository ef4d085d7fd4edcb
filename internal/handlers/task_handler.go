package handlers

import (
	"fmt"
	"log"

	"taskapi/internal/middleware"
	"taskapi/internal/models"
	"taskapi/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// TaskHandler handles HTTP requests for tasks.
type TaskHandler struct {
	taskService *services.TaskService
	tokens      *services.TokenService
	validate    *validator.Validate
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService, tokens *services.TokenService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		tokens:      tokens,
		validate:    newValidator(),
	}
}

// RegisterRoutes mounts the task routes under /tasks, all behind auth.
func (h *TaskHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	tasks := router.Group("/tasks", auth)
	tasks.Get("/", h.GetAllTasks)
	tasks.Get("/:id", h.GetTaskByID)
	tasks.Post("/", h.CreateTask)
	tasks.Put("/:id", h.UpdateTask)
	tasks.Delete("/:id", h.DeleteTask)
}

// caller resolves the identity stamped on mutations from the validated principal.
func (h *TaskHandler) caller(c *fiber.Ctx) services.Caller {
	return services.Caller{Username: h.tokens.CurrentUsername(middleware.CurrentPrincipal(c))}
}

func (h *TaskHandler) GetAllTasks(c *fiber.Ctx) error {
	tasks, err := h.taskService.GetAllTasks(c.UserContext())
	if err != nil {
		log.Printf("Error listing tasks: %v", err)
		return err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return c.JSON(tasks)
}

func (h *TaskHandler) GetTaskByID(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, found, err := h.taskService.GetTaskByID(c.UserContext(), id)
	if err != nil {
		log.Printf("Error getting task %d: %v", id, err)
		return err
	}
	if !found {
		c.Status(fiber.StatusNotFound)
		return nil
	}
	return c.JSON(task)
}

// CreateTask answers 201 with the stored task and its location.
func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	var input models.TaskInput
	if err := parseBody(c, h.validate, &input); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.UserContext(), h.caller(c), input)
	if err != nil {
		log.Printf("Error creating task: %v", err)
		return err
	}

	c.Location(fmt.Sprintf("/api/tasks/%d", task.ID))
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}
	var input models.TaskInput
	if err := parseBody(c, h.validate, &input); err != nil {
		return err
	}

	_, found, err := h.taskService.UpdateTask(c.UserContext(), h.caller(c), id, input)
	if err != nil {
		log.Printf("Error updating task %d: %v", id, err)
		return err
	}
	if !found {
		c.Status(fiber.StatusNotFound)
		return nil
	}
	c.Status(fiber.StatusNoContent)
	return nil
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	deleted, err := h.taskService.DeleteTask(c.UserContext(), h.caller(c), id)
	if err != nil {
		log.Printf("Error deleting task %d: %v", id, err)
		return err
	}
	if !deleted {
		c.Status(fiber.StatusNotFound)
		return nil
	}
	c.Status(fiber.StatusNoContent)
	return nil
}
