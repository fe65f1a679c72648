package schedule

import (
	"context"
	"time"
)

type Repository interface {
	GetNextInstance(ctx context.Context, templateID int, after time.Time) (*ClassInstance, error)
	UserHasAttendance(ctx context.Context, userID, classInstanceID int) (bool, error)
	GetUserAttendances(ctx context.Context, userID int) ([]Attendance, error)
}
