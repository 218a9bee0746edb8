package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type TokenRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// POST /api/auth/token
func TokenHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TokenRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		identifier := body.Identifier
		if identifier == "" {
			identifier = body.Username
		}
		if identifier == "" {
			identifier = body.Email
		}

		user, err := svc.Authenticate(c.UserContext(), identifier, body.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid username or password")
		}
		if err != nil {
			return err
		}

		profile, _, err := svc.EnsureProfile(c.UserContext(), user.ID, "")
		if err != nil {
			return err
		}

		token, err := svc.IssueToken(user, profile.Role)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not issue token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": UserResponse{
				ID:       user.ID,
				Username: user.Username,
				Name:     user.DisplayName(),
				Role:     string(profile.Role),
			},
		})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := CurrentPrincipal(c)
		if p == nil {
			return fiber.NewError(fiber.StatusForbidden, "Authentication required")
		}
		return c.JSON(UserResponse{
			ID:       p.UserID,
			Username: p.Username,
			Name:     p.Name,
			Role:     string(p.Role),
		})
	}
}
