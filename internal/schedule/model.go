package schedule

import "time"

type InstanceStatus string

const (
	InstanceScheduled InstanceStatus = "scheduled"
	InstanceCancelled InstanceStatus = "cancelled"
)

// ClassTemplate is a recurring class type (e.g. "Tuesday salsa, 60 min").
type ClassTemplate struct {
	ID              int       `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ClassInstance is one concrete scheduled occurrence of a template.
type ClassInstance struct {
	ID         int            `db:"id" json:"id"`
	TemplateID int            `db:"template_id" json:"template_id"`
	StartsAt   time.Time      `db:"starts_at" json:"starts_at"`
	Status     InstanceStatus `db:"status" json:"status"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// Attendance books one user into one class instance. At most one attendance
// exists per (user, class instance) pair.
type Attendance struct {
	ID              int       `db:"id" json:"id"`
	UserID          int       `db:"user_id" json:"user_id"`
	ClassInstanceID int       `db:"class_instance_id" json:"class_instance_id"`
	UserPurchaseID  *int      `db:"user_purchase_id" json:"user_purchase_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
