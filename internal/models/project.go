package models

import "time"

type Project struct {
	ID          int64
	OwnerID     string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
