package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// CompletedWorkout is one entry of the append-only "burn this meal" log.
type CompletedWorkout struct {
	ID          string
	MealText    string
	Goal        string
	PlanJSON    string
	CompletedAt time.Time
}
