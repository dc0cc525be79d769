package user

import "errors"

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("password must include upper and lower case letters, a number and a symbol")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is not set")
	ErrInvalidToken       = errors.New("invalid token")

	ErrCannotDeleteSelf   = errors.New("you cannot delete your own admin account")
	ErrCannotDeleteAdmin  = errors.New("admin users cannot be deleted from this action")
	ErrNotAdmin           = errors.New("account is not an admin")
	ErrNoAccountChanges   = errors.New("no account changes provided")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrIncompletePassword = errors.New("fill current password, new password and confirm password")
)
