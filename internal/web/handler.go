package web

import (
	"errors"

	"restoran-web/internal/auth"
	"restoran-web/internal/config"
	"restoran-web/internal/logging"
	"restoran-web/internal/models"

	"github.com/gofiber/fiber/v2"
)

var roleTitles = map[models.Role]string{
	models.RoleCustomer: "Customer",
	models.RoleStaff:    "Staff",
	models.RoleChef:     "Chef",
	models.RoleRider:    "Rider",
	models.RoleAdmin:    "Admin",
}

func roleNames() []string {
	out := make([]string, len(models.Roles))
	for i, r := range models.Roles {
		out[i] = string(r)
	}
	return out
}

func csrfToken(c *fiber.Ctx) string {
	s, _ := c.Locals(CSRFKey).(string)
	return s
}

func renderLogin(c *fiber.Ctx, cfg *config.Config, data fiber.Map) error {
	page := fiber.Map{
		"Title":     "Sign in",
		"Role":      string(models.RoleCustomer),
		"Roles":     roleNames(),
		"CSRF":      csrfToken(c),
		"DemoLogin": cfg.DemoLogin,
	}
	for k, v := range data {
		page[k] = v
	}
	return c.Render("login", page)
}

// startSession issues the cookie and sends the browser to its dashboard.
func startSession(c *fiber.Ctx, cfg *config.Config, svc *auth.Service, user *models.User, role models.Role) error {
	token, err := svc.IssueToken(user, role)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not start session")
	}
	auth.SetSession(c, cfg, token)
	return c.Redirect(role.DashboardPath(), fiber.StatusFound)
}

// GET /login/
func LoginPageHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return renderLogin(c, cfg, nil)
	}
}

// GET /login/:role/
func LoginRoleHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := models.ParseRole(c.Params("role"))
		if !ok {
			role = models.RoleCustomer
		}
		return renderLogin(c, cfg, fiber.Map{"Role": string(role)})
	}
}

// POST /login/
func LoginSubmitHandler(cfg *config.Config, svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := c.FormValue("loginEmail")
		password := c.FormValue("loginPassword")
		requested := c.FormValue("loginRole", string(models.RoleCustomer))

		user, err := svc.Authenticate(c.UserContext(), identifier, password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return renderLogin(c, cfg, fiber.Map{
				"LoginError": "Invalid username or password",
				"Role":       requested,
			})
		}
		if err != nil {
			return err
		}

		// the selected role only matters for users without a profile yet
		profile, created, err := svc.EnsureProfile(c.UserContext(), user.ID, svc.RegistrableRole(requested))
		if err != nil {
			return err
		}
		if created {
			logging.FromCtx(c).Info("profile created at login", "user_id", user.ID, "role", profile.Role)
		}
		return startSession(c, cfg, svc, user, profile.Role)
	}
}

// GET /login/demo/:role/
func DemoLoginHandler(cfg *config.Config, svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cfg.DemoLogin {
			return fiber.NewError(fiber.StatusNotFound, "Demo login is disabled")
		}
		role, ok := models.ParseRole(c.Params("role"))
		if !ok {
			return c.Redirect("/login/", fiber.StatusFound)
		}
		user, err := svc.DemoUser(c.UserContext(), role)
		if err != nil {
			return err
		}
		return startSession(c, cfg, svc, user, role)
	}
}

// POST /auth/register/
func RegisterHandler(cfg *config.Config, svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := auth.RegisterInput{
			Username:        c.FormValue("registerUsername"),
			Email:           c.FormValue("registerEmail"),
			Phone:           c.FormValue("registerPhone"),
			Password:        c.FormValue("registerPassword"),
			ConfirmPassword: c.FormValue("registerConfirmPassword"),
			Role:            c.FormValue("loginRole", string(models.RoleCustomer)),
			FirstName:       c.FormValue("registerFirstName"),
			LastName:        c.FormValue("registerLastName"),
		}

		user, profile, err := svc.Register(c.UserContext(), in)
		switch {
		case errors.Is(err, auth.ErrPasswordMismatch):
			return renderLogin(c, cfg, fiber.Map{
				"Title":         "Register",
				"RegisterError": "Missing fields or passwords do not match",
			})
		case errors.Is(err, auth.ErrUsernameTaken):
			return renderLogin(c, cfg, fiber.Map{
				"Title":         "Register",
				"RegisterError": "This username is already taken",
			})
		case err != nil:
			return err
		}
		return startSession(c, cfg, svc, user, profile.Role)
	}
}

// GET /auth/logout/
func LogoutHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth.ClearSession(c, cfg)
		return c.Redirect("/login/", fiber.StatusFound)
	}
}

// GET /home/
func HomeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Render("home", fiber.Map{
			"Title":       "Restaurant",
			"InitialRole": "",
			"User":        auth.CurrentPrincipal(c),
			"CSRF":        csrfToken(c),
		})
	}
}

// DashboardHandler serves /<role>/. Callers with another role are sent to
// their own dashboard. Mount behind auth.RequirePageAuth.
func DashboardHandler(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := auth.CurrentPrincipal(c)
		if p == nil {
			return c.Redirect("/login/", fiber.StatusFound)
		}
		if p.Role != role {
			return c.Redirect(p.Role.DashboardPath(), fiber.StatusFound)
		}
		return c.Render("home", fiber.Map{
			"Title":       roleTitles[role] + " - Restaurant",
			"InitialRole": string(role),
			"User":        p,
			"CSRF":        csrfToken(c),
		})
	}
}
