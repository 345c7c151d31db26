package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"lapak/internal/identity"
	"lapak/internal/middleware"
	"lapak/internal/models"
	"lapak/internal/repositories"
	"lapak/internal/services"
)

// AuthHandler handles HTTP requests for authentication and profiles.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the auth routes. Profile and password routes sit
// behind the supplied auth gate; signup/login/google are public.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, authGate fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/signup", h.HandleSignup)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/google", h.HandleGoogleLogin)
	authRoutes.Get("/profile", authGate, h.HandleGetProfile)
	authRoutes.Get("/me", authGate, h.HandleGetProfile) // alias kept for older clients
	authRoutes.Put("/profile", authGate, h.HandleUpdateProfile)
	authRoutes.Put("/change-password", authGate, h.HandleChangePassword)
}

// SignupRequest represents the request body for signup.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// HandleSignup handles new user registration.
func (h *AuthHandler) HandleSignup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing signup request body: %v", err)
		return badRequest(c, "Invalid request body")
	}
	if resp := h.validationErrors(c, req); resp != nil {
		return resp
	}

	token, user, err := h.authService.Signup(req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return badRequest(c, "Email already registered")
		}
		log.Printf("Error during signup: %v", err)
		return serverError(c, "Server error during signup")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Signup successful",
		"token":   token,
		"user":    sanitizedUser(user),
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles email/password login and issues a token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return badRequest(c, "Invalid request body")
	}
	if resp := h.validationErrors(c, req); resp != nil {
		return resp
	}

	token, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return badRequest(c, "Invalid credentials")
		case errors.Is(err, services.ErrNoPassword):
			return badRequest(c, "This account uses Google login only")
		}
		log.Printf("Error during login: %v", err)
		return serverError(c, "Server error during login")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    sanitizedUser(user),
	})
}

// GoogleLoginRequest represents the request body for Google login.
type GoogleLoginRequest struct {
	IDToken string `json:"idToken"`
}

// HandleGoogleLogin verifies a Google ID token and finds or creates the
// matching account.
func (h *AuthHandler) HandleGoogleLogin(c *fiber.Ctx) error {
	var req GoogleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing google login request body: %v", err)
		return badRequest(c, "Invalid request body")
	}
	if req.IDToken == "" {
		return badRequest(c, "No ID token provided by Google")
	}

	token, user, err := h.authService.LoginWithGoogle(c.Context(), req.IDToken)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidAssertion):
			log.Printf("Google login rejected: %v", err)
			return badRequest(c, "Google authentication failed")
		case errors.Is(err, services.ErrGoogleDisabled):
			log.Printf("Google login attempted but not configured")
			return serverError(c, "Google login is not configured")
		}
		log.Printf("Error during google login: %v", err)
		return serverError(c, "Server error during google login")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// HandleGetProfile returns the authenticated user's profile.
func (h *AuthHandler) HandleGetProfile(c *fiber.Ctx) error {
	userID, _ := c.Locals(middleware.LocalsUserID).(string)

	user, err := h.authService.Profile(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return notFound(c, "User not found")
		}
		log.Printf("Error fetching profile for user %s: %v", userID, err)
		return serverError(c, "Server error fetching profile")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

// HandleUpdateProfile applies an allow-listed partial update to the
// authenticated user's profile. Unknown keys are rejected.
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	userID, _ := c.Locals(middleware.LocalsUserID).(string)

	var upd models.ProfileUpdate
	if err := decodeStrict(c.Body(), &upd); err != nil {
		log.Printf("Error parsing profile update body: %v", err)
		return badRequest(c, "Invalid request body")
	}
	if upd.Email != nil {
		if err := h.validate.Var(*upd.Email, "required,email"); err != nil {
			return badRequest(c, "Invalid email address")
		}
	}

	user, err := h.authService.UpdateProfile(userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicateEmail):
			return badRequest(c, "Email already in use")
		case errors.Is(err, repositories.ErrNotFound):
			return notFound(c, "User not found")
		}
		log.Printf("Error updating profile for user %s: %v", userID, err)
		return serverError(c, "Server error updating profile")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated",
		"user":    user,
	})
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// HandleChangePassword swaps the authenticated user's password after
// verifying the old one.
func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	userID, _ := c.Locals(middleware.LocalsUserID).(string)

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing change password body: %v", err)
		return badRequest(c, "Invalid request body")
	}
	if resp := h.validationErrors(c, req); resp != nil {
		return resp
	}

	if err := h.authService.ChangePassword(userID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, services.ErrNoPassword):
			return badRequest(c, "Google account cannot change password")
		case errors.Is(err, services.ErrWrongOldPassword):
			return badRequest(c, "Old password is incorrect")
		case errors.Is(err, repositories.ErrNotFound):
			return notFound(c, "User not found")
		}
		log.Printf("Error changing password for user %s: %v", userID, err)
		return serverError(c, "Server error changing password")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password updated",
	})
}

// validationErrors runs struct validation and, on failure, writes a 400
// response enumerating every violated constraint. Returns nil when valid.
func (h *AuthHandler) validationErrors(c *fiber.Ctx, req interface{}) error {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}
	violations, ok := err.(validator.ValidationErrors)
	if !ok {
		log.Printf("Error validating request: %v", err)
		return badRequest(c, "Invalid request body")
	}
	errorMessages := make(map[string]string, len(violations))
	for _, e := range violations {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' constraint", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// sanitizedUser is the compact user payload signup and login return.
func sanitizedUser(user *models.User) fiber.Map {
	return fiber.Map{
		"id":      user.ID,
		"name":    user.Name,
		"email":   user.Email,
		"picture": user.Picture,
	}
}

// decodeStrict unmarshals JSON rejecting unknown keys, so partial updates
// can't smuggle fields outside the allow-list.
func decodeStrict(body []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func serverError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
