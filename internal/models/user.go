package models

import "time"

type User struct {
	ID             string
	UserName       string
	Email          string
	Password       string
	EmailConfirmed bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
