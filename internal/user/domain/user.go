package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
)

type User struct {
	ID        int64
	Username  string
	Email     string
	FullName  string
	CreatedAt time.Time
}
