package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/models"
	"github.com/tnmtthw/b-dazzle-cafe-sub000/internal/services"
)

// PasswordHandler handles the password-reset token lifecycle over HTTP.
type PasswordHandler struct {
	tokenService *services.TokenService
	validate     *validator.Validate
}

// NewPasswordHandler creates a new PasswordHandler.
func NewPasswordHandler(tokenService *services.TokenService) *PasswordHandler {
	return &PasswordHandler{
		tokenService: tokenService,
		validate:     validator.New(),
	}
}

// RegisterRoutes registers the password-reset routes with the Fiber app.
func (h *PasswordHandler) RegisterRoutes(router fiber.Router) {
	pwRoutes := router.Group("/password")
	pwRoutes.Post("/forgot", h.HandleForgot)
	pwRoutes.Get("/validate", h.HandleValidate)
	pwRoutes.Post("/reset", h.HandleReset)
}

// ForgotRequest represents the request body for a reset request.
type ForgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleForgot issues a reset token and mails the link. The response is
// identical whether or not the email belongs to an account, so the
// endpoint cannot be used to probe for registered addresses.
func (h *PasswordHandler) HandleForgot(c *fiber.Ctx) error {
	var req ForgotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationErrors(err),
		})
	}

	if err := h.tokenService.IssueToken(req.Email, models.PurposeReset); err != nil {
		// Deliberately the same shape as success: an internal failure here
		// is logged but must not reveal anything about the email.
		log.Printf("Error issuing reset token: %v", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "If that email is registered, a reset link has been sent",
	})
}

// HandleValidate is the pre-flight check the reset form runs before
// letting the user type a new password.
func (h *PasswordHandler) HandleValidate(c *fiber.Ctx) error {
	value := c.Query("token")
	if value == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Missing token",
		})
	}

	if _, err := h.tokenService.ValidateToken(value); err != nil {
		if errors.Is(err, services.ErrTokenExpired) || services.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"valid": false})
		}
		log.Printf("Error validating reset token: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not validate token",
		})
	}

	return c.JSON(fiber.Map{"valid": true})
}

// ResetRequest represents the request body for consuming a reset token.
type ResetRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// HandleReset consumes a reset token and sets the new password.
func (h *PasswordHandler) HandleReset(c *fiber.Ctx) error {
	var req ResetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationErrors(err),
		})
	}

	if err := h.tokenService.ConsumeResetToken(req.Token, req.NewPassword); err != nil {
		log.Printf("Error consuming reset token: %v", err)
		if errors.Is(err, services.ErrTokenExpired) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Reset link has expired, request a new one",
			})
		}
		if services.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Unknown or already used reset link",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not reset password",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password updated, you can log in now",
	})
}
