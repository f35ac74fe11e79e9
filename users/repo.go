package users

import "time"

type UserRepo interface {
	Upsert(user *User) error
	GetByUsername(username string) (*User, error)
	GetByID(id int64) (*User, error)
	SetLastLogin(username string, at time.Time) error
}
