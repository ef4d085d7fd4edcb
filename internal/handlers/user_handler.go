package handlers

import (
	"log"

	"taskapi/internal/apperror"
	"taskapi/internal/models"
	"taskapi/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles registration, login and user administration.
type UserHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{
		authService: authService,
		validate:    newValidator(),
	}
}

// RegisterRoutes mounts the user routes under /users. Register and login are
// public; the rest go through auth.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	users := router.Group("/users")
	users.Post("/register", h.HandleRegister)
	users.Post("/login", h.HandleLogin)
	users.Get("/users", auth, h.HandleListUsers)
	users.Delete("/:userId", auth, h.HandleDeleteUser)
}

// HandleRegister creates a user account. Success has an empty body.
func (h *UserHandler) HandleRegister(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	if err := h.authService.RegisterUser(c.UserContext(), req); err != nil {
		log.Printf("Error registering user %s: %v", req.Username, err)
		return err
	}

	c.Status(fiber.StatusOK)
	return nil
}

// HandleLogin answers with the bearer token as plain text.
func (h *UserHandler) HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}

	token, err := h.authService.LoginUser(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if apperror.IsType(err, apperror.UnauthorizedError) {
			log.Printf("Login failed for user %s", req.Username)
		}
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(fiber.StatusOK).SendString(token)
}

func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	if err := h.authService.DeleteUser(c.UserContext(), c.Params("userId")); err != nil {
		return err
	}
	c.Status(fiber.StatusOK)
	return nil
}

func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.authService.ListUsers(c.UserContext())
	if err != nil {
		log.Printf("Error listing users: %v", err)
		return err
	}
	if users == nil {
		users = []models.UserSummary{}
	}
	return c.JSON(users)
}
