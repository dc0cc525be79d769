package user

import "time"

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

type User struct {
	ID           uint
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

type RegisterInput struct {
	Name            string `json:"name" validate:"required,min=2,max=80"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AccountInput changes the signed-in admin's email and/or password. Empty fields are ignored.
type AccountInput struct {
	Email           string `json:"email" validate:"omitempty,email"`
	CurrentPassword string `json:"currentPassword" validate:"max=128"`
	NewPassword     string `json:"newPassword" validate:"max=128"`
	ConfirmPassword string `json:"confirmPassword" validate:"max=128"`
}

func (in AccountInput) wantsPasswordChange() bool {
	return in.CurrentPassword != "" || in.NewPassword != "" || in.ConfirmPassword != ""
}

// PublicUser is the shape returned to clients; it never carries the hash.
type PublicUser struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// Summary is the admin listing row.
type Summary struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}
