package handlers

import (
	"errors"
	"fmt"
	"log"

	"taskapi/internal/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ErrorResponse is the body of every 400 and 500 response.
type ErrorResponse struct {
	MessageList    []string `json:"messageList"`
	Source         string   `json:"source"`
	Exception      string   `json:"exception"`
	ErrorID        string   `json:"errorId"`
	SupportMessage string   `json:"supportMessage"`
	StatusCode     int      `json:"statusCode"`
}

// ErrorHandler turns errors returned by handlers (and panics caught by the recover
// middleware) into responses. Not-found and unauthorized outcomes have no body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch {
		case fiberErr.Code == fiber.StatusNotFound || fiberErr.Code == fiber.StatusMethodNotAllowed:
			c.Status(fiberErr.Code)
			return nil
		case fiberErr.Code < fiber.StatusInternalServerError:
			err = apperror.NewValidationError(fiberErr.Message)
		default:
			err = apperror.NewInternalError(fiberErr.Message, fiberErr)
		}
	}

	appErr := apperror.FromError(err)
	status := appErr.StatusCode()
	source := fmt.Sprintf("%s %s", c.Method(), c.Path())

	switch appErr.Type {
	case apperror.NotFoundError, apperror.UnauthorizedError:
		c.Status(status)
		return nil
	case apperror.ValidationError, apperror.DomainError:
		return c.Status(status).JSON(ErrorResponse{
			MessageList: messageList(appErr),
			Source:      source,
			StatusCode:  status,
		})
	}

	errorID := uuid.New().String()
	log.Printf("Internal error %s on %s: %v", errorID, source, err)
	return c.Status(status).JSON(ErrorResponse{
		MessageList:    messageList(appErr),
		Source:         source,
		Exception:      appErr.Error(),
		ErrorID:        errorID,
		SupportMessage: fmt.Sprintf("Contact support quoting error id %s.", errorID),
		StatusCode:     status,
	})
}

func messageList(err *apperror.AppError) []string {
	if len(err.Messages) == 0 {
		return []string{}
	}
	return err.Messages
}
