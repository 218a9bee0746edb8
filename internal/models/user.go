package models

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:254;index" json:"email"`
	FirstName    string    `gorm:"size:150" json:"first_name"`
	LastName     string    `gorm:"size:150" json:"last_name"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	IsSuperuser  bool      `gorm:"not null" json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Password is only accepted on input; BeforeSave hashes it.
	Password string `gorm:"-" json:"password,omitempty"`

	Profile   *Profile  `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	Addresses []Address `gorm:"constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
}

func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword is false for accounts without a usable password (demo users).
func (u *User) CheckPassword(plain string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Password != "" {
		if err := u.SetPassword(u.Password); err != nil {
			return err
		}
		u.Password = ""
	}
	return nil
}

func (u *User) Validate() error {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return invalid("username is required")
	}
	return nil
}

func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Profile extends a User with a role and phone number.
type Profile struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Role   Role   `gorm:"size:20;not null;index" json:"role"`
	Phone  string `gorm:"size:20;index" json:"phone"`
}

func NewProfile() *Profile {
	return &Profile{Role: RoleCustomer}
}

func (p *Profile) Validate() error {
	if p.UserID == 0 {
		return invalid("user_id is required")
	}
	if !p.Role.Valid() {
		return invalid(fmt.Sprintf("unknown role %q", p.Role))
	}
	return nil
}
