package models

import (
	"slices"
	"time"
)

const (
	StatusNew        = "New"
	StatusInProgress = "InProgress"
	StatusCompleted  = "Completed"
)

// TaskStatuses lists the statuses in the order they are shown.
var TaskStatuses = []string{StatusNew, StatusInProgress, StatusCompleted}

func IsValidTaskStatus(status string) bool {
	return slices.Contains(TaskStatuses, status)
}

type Task struct {
	ID          int64
	ProjectID   int64
	CreatedBy   string
	Title       string
	Description string
	DueDate     time.Time
	Priority    int
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
