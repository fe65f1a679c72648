package schedule

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNoUpcomingInstance = errors.New("no upcoming class instance")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetNextInstance(ctx context.Context, templateID int, after time.Time) (*ClassInstance, error) {
	query := `
		SELECT id, template_id, starts_at, status, created_at
		FROM class_instances
		WHERE template_id = $1
		  AND starts_at > $2
		  AND status = 'scheduled'
		ORDER BY starts_at
		LIMIT 1
	`

	var instance ClassInstance
	err := r.db.GetContext(ctx, &instance, query, templateID, after)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoUpcomingInstance
		}
		return nil, err
	}

	return &instance, nil
}

func (r *repository) UserHasAttendance(ctx context.Context, userID, classInstanceID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM attendances
			WHERE user_id = $1 AND class_instance_id = $2
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, userID, classInstanceID)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *repository) GetUserAttendances(ctx context.Context, userID int) ([]Attendance, error) {
	query := `
		SELECT id, user_id, class_instance_id, user_purchase_id, created_at
		FROM attendances
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	var attendances []Attendance
	err := r.db.SelectContext(ctx, &attendances, query, userID)
	if err != nil {
		return nil, err
	}

	return attendances, nil
}
