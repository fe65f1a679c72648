package pass

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrPassNotFound       = errors.New("pass not found")
	ErrNoClassesRemaining = errors.New("no classes remaining on pass")
	ErrAlreadyAttending   = errors.New("user already attends this class")
)

const pqUniqueViolation = "23505"

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByPaymentID(ctx context.Context, paymentID string) (*UserPurchase, error) {
	query := `
		SELECT id, user_id, package_id, payment_id, classes_remaining, classes_used, purchase_date, expiry_date, status
		FROM user_purchases
		WHERE payment_id = $1
	`

	var purchase UserPurchase
	err := r.db.GetContext(ctx, &purchase, query, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPassNotFound
		}
		return nil, err
	}

	return &purchase, nil
}

func (r *repository) GetUserPasses(ctx context.Context, userID int) ([]UserPurchase, error) {
	query := `
		SELECT id, user_id, package_id, payment_id, classes_remaining, classes_used, purchase_date, expiry_date, status
		FROM user_purchases
		WHERE user_id = $1
		ORDER BY purchase_date DESC
	`

	var purchases []UserPurchase
	err := r.db.SelectContext(ctx, &purchases, query, userID)
	if err != nil {
		return nil, err
	}

	return purchases, nil
}

// ConsumeForClass books the user into a class instance and spends one credit
// of the pass in a single transaction. The balance is re-read under FOR
// UPDATE so a concurrent consumer of the same pass cannot drive it negative.
func (r *repository) ConsumeForClass(ctx context.Context, purchaseID, userID, classInstanceID int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var remaining int
	err = tx.QueryRowxContext(ctx, `
		SELECT classes_remaining
		FROM user_purchases
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, purchaseID, userID).Scan(&remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPassNotFound
		}
		return err
	}

	if remaining <= 0 {
		return ErrNoClassesRemaining
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO attendances (user_id, class_instance_id, user_purchase_id)
		VALUES ($1, $2, $3)
	`, userID, classInstanceID, purchaseID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return ErrAlreadyAttending
		}
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE user_purchases
		SET classes_remaining = classes_remaining - 1,
		    classes_used = classes_used + 1
		WHERE id = $1
	`, purchaseID)
	if err != nil {
		return err
	}

	return tx.Commit()
}
