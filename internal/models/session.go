package models

import "time"

type Session struct {
	ID          string
	UserID      string
	Fingerprint string
	Persistent  bool
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
