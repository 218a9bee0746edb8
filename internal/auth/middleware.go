package auth

import (
	"strings"
	"time"

	"restoran-web/internal/config"
	"restoran-web/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey    = "user_id"
	CtxUserRoleKey  = "user_role"
	CtxPrincipalKey = "principal"
)

// Authenticate resolves the caller from a bearer token or the session
// cookie. It never rejects: anonymous requests simply carry no principal.
func Authenticate(cfg *config.Config, svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr, bearer := extractToken(c, cfg.CookieName)
		if tokenStr == "" {
			return c.Next()
		}

		claims, err := ParseToken(cfg.JWTSecret, tokenStr)
		if err != nil {
			if !bearer {
				ClearSession(c, cfg)
			}
			return c.Next()
		}

		p, err := svc.LoadPrincipal(c.UserContext(), claims.UserID)
		if err != nil {
			// user deleted since the token was issued
			if !bearer {
				ClearSession(c, cfg)
			}
			return c.Next()
		}

		c.Locals(CtxPrincipalKey, p)
		c.Locals(CtxUserIDKey, p.UserID)
		c.Locals(CtxUserRoleKey, p.Role)
		return c.Next()
	}
}

func extractToken(c *fiber.Ctx, cookieName string) (string, bool) {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1]), true
		}
		return "", true
	}
	return c.Cookies(cookieName), false
}

// CurrentPrincipal returns the authenticated caller, or nil.
func CurrentPrincipal(c *fiber.Ctx) *Principal {
	p, _ := c.Locals(CtxPrincipalKey).(*Principal)
	return p
}

// IsBearer reports whether the request carried an Authorization header.
func IsBearer(c *fiber.Ctx) bool {
	return c.Get(fiber.HeaderAuthorization) != ""
}

// RequireAPIAuth rejects anonymous API calls with 403.
func RequireAPIAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentPrincipal(c) == nil {
			return fiber.NewError(fiber.StatusForbidden, "Authentication required")
		}
		return c.Next()
	}
}

// RequirePageAuth sends anonymous browsers to the login page.
func RequirePageAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentPrincipal(c) == nil {
			return c.Redirect("/login/", fiber.StatusFound)
		}
		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := CurrentPrincipal(c)
		if p == nil {
			return fiber.NewError(fiber.StatusForbidden, "Authentication required")
		}
		for _, r := range allowedRoles {
			if r == p.Role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Role not allowed")
	}
}

func SetSession(c *fiber.Ctx, cfg *config.Config, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(cfg.SessionTTL),
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func ClearSession(c *fiber.Ctx, cfg *config.Config) {
	c.Cookie(&fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
