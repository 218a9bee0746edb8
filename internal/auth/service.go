package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"restoran-web/internal/config"
	"restoran-web/internal/models"

	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrPasswordMismatch   = errors.New("missing fields or passwords do not match")
	ErrUnknownRole        = errors.New("unknown role")
)

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID   uint
	Username string
	Name     string
	Role     models.Role
}

type Service struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

// RegistrableRole maps a requested role to one a user may grant themselves.
// Anything not listed in SELF_REGISTER_ROLES falls back to customer.
func (s *Service) RegistrableRole(requested string) models.Role {
	r, ok := models.ParseRole(requested)
	if !ok {
		return models.RoleCustomer
	}
	for _, allowed := range s.cfg.SelfRegisterRoles {
		if string(r) == allowed {
			return r
		}
	}
	return models.RoleCustomer
}

// FindByIdentifier resolves an email (contains '@'), a phone number (all
// digits) or a username, all case-insensitively.
func (s *Service) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrInvalidCredentials
	}

	db := s.db.WithContext(ctx)
	var user models.User
	var err error
	switch {
	case strings.Contains(identifier, "@"):
		err = db.Where("LOWER(email) = LOWER(?)", identifier).Order("id").First(&user).Error
	case isDigits(identifier):
		var profile models.Profile
		if err = db.Where("phone = ?", identifier).First(&profile).Error; err == nil {
			err = db.First(&user, profile.UserID).Error
		}
	default:
		err = db.Where("LOWER(username) = LOWER(?)", identifier).First(&user).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	user, err := s.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// EnsureProfile fetches the user's profile, creating it with role when it
// does not exist yet. An existing profile keeps its role.
func (s *Service) EnsureProfile(ctx context.Context, userID uint, role models.Role) (*models.Profile, bool, error) {
	if !role.Valid() {
		role = models.RoleCustomer
	}
	db := s.db.WithContext(ctx)
	var profile models.Profile
	err := db.Where("user_id = ?", userID).First(&profile).Error
	if err == nil {
		return &profile, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("load profile: %w", err)
	}

	profile = models.Profile{UserID: userID, Role: role}
	if err := db.Create(&profile).Error; err != nil {
		return nil, false, fmt.Errorf("create profile: %w", err)
	}
	return &profile, true, nil
}

type RegisterInput struct {
	Username        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
	Role            string
	FirstName       string
	LastName        string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, *models.Profile, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" || in.Password != in.ConfirmPassword {
		return nil, nil, ErrPasswordMismatch
	}

	user := models.User{
		Username:  in.Username,
		Email:     strings.TrimSpace(in.Email),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Password:  in.Password,
	}
	profile := models.Profile{
		Role:  s.RegistrableRole(in.Role),
		Phone: strings.TrimSpace(in.Phone),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("LOWER(username) = LOWER(?)", user.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUsernameTaken
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile.UserID = user.ID
		return tx.Create(&profile).Error
	})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("register user: %w", err)
	}
	return &user, &profile, nil
}

// DemoUser returns demo_<role>, creating the account and forcing its
// profile role. Demo accounts have no usable password.
func (s *Service) DemoUser(ctx context.Context, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, ErrUnknownRole
	}
	username := "demo_" + string(role)
	user := models.User{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where(models.User{Username: username}).
			Attrs(models.User{
				Email:     username + "@example.com",
				FirstName: strings.ToUpper(string(role[:1])) + string(role[1:]),
				LastName:  "Demo",
			}).
			FirstOrCreate(&user).Error
		if err != nil {
			return err
		}
		return tx.Where(models.Profile{UserID: user.ID}).
			Assign(models.Profile{Role: role}).
			FirstOrCreate(&models.Profile{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("demo user: %w", err)
	}
	return &user, nil
}

// LoadPrincipal reads the caller's current role from the database so that
// role changes apply without waiting for the token to expire.
func (s *Service) LoadPrincipal(ctx context.Context, userID uint) (*Principal, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Profile").First(&user, userID).Error; err != nil {
		return nil, err
	}
	role := models.RoleCustomer
	if user.Profile != nil && user.Profile.Role.Valid() {
		role = user.Profile.Role
	}
	return &Principal{UserID: user.ID, Username: user.Username, Name: user.DisplayName(), Role: role}, nil
}

func (s *Service) IssueToken(user *models.User, role models.Role) (string, error) {
	return GenerateToken(s.cfg.JWTSecret, s.cfg.SessionTTL, user, role)
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
