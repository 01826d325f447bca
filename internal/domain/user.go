package domain

import (
	"context"
	"net/mail"
	"strings"
	"time"
)

// Role is the access level of a user
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleManager      Role = "GERENTE"
	RoleCollaborator Role = "COLABORADOR"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCollaborator:
		return true
	}
	return false
}

// User represents a user in the system
type User struct {
	ID           int32      `json:"id"`
	Name         string     `json:"nome"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"tipoUsuario"`
	CompanyID    *int32     `json:"empresaId"`
	CreatedAt    time.Time  `json:"criadoEm"`
	UpdatedAt    time.Time  `json:"atualizadoEm"`
	DeletedAt    *time.Time `json:"-"`
}

// DeletionPolicy implements Deletable. Users are soft deleted.
func (*User) DeletionPolicy() DeletionPolicy { return SoftDelete }

// UserPatch holds the user fields that may be changed after creation.
// A nil field is left untouched.
type UserPatch struct {
	Name         *string
	Email        *string
	Role         *Role
	CompanyID    *int32
	ClearCompany bool
}

// IsEmpty reports whether the patch changes nothing
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil && p.CompanyID == nil && !p.ClearCompany
}

// Validate normalizes and checks every present field
func (p *UserPatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Name != nil {
		name, err := ValidateName(*p.Name)
		if err != nil {
			return err
		}
		p.Name = &name
	}
	if p.Email != nil {
		email, err := NormalizeEmail(*p.Email)
		if err != nil {
			return err
		}
		p.Email = &email
	}
	if p.Role != nil && !p.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// NormalizeEmail trims, lowercases and validates an address
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// ValidateName trims a display name and enforces its length bounds
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	if len(name) > MaxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

// UserRepository defines the interface for user persistence operations
type UserRepository interface {
	GetByID(ctx context.Context, id int32) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, id int32, patch UserPatch) (*User, error)
	SoftDelete(ctx context.Context, id int32) error
	SetRecoveryToken(ctx context.Context, id int32, tokenHash string, expiresAt time.Time) error
	GetByRecoveryToken(ctx context.Context, tokenHash string, now time.Time) (*User, error)
	ResetPassword(ctx context.Context, id int32, passwordHash string) error
}

// ValidatePassword enforces the password length bounds
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}
