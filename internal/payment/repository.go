package payment

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/jmoiron/sqlx"

	"studiopass/internal/pass"
)

var ErrPaymentNotFound = errors.New("payment not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreatePending(ctx context.Context, p *Payment) (*Payment, error) {
	query := `
		INSERT INTO payments (id, user_id, amount, currency, status, method, package_id, auto_enroll, description, email, payer_name)
		VALUES ($1, $2, $3, $4, 'pending', $5, $6, $7, $8, $9, $10)
		RETURNING id, user_id, amount, currency, status, method, method_id, transaction_id, package_id, auto_enroll, description, email, payer_name, created_at, updated_at
	`

	var created Payment
	err := r.db.GetContext(ctx, &created, query,
		p.ID, p.UserID, p.Amount, p.Currency, p.Method,
		p.PackageID, p.AutoEnroll, p.Description, p.Email, p.PayerName)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Payment, error) {
	query := `
		SELECT id, user_id, amount, currency, status, method, method_id, transaction_id, package_id, auto_enroll, description, email, payer_name, created_at, updated_at
		FROM payments
		WHERE id = $1
	`

	var p Payment
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	return &p, nil
}

// SettleAndGrant flips the payment to completed and inserts the pass as one
// atomic transaction. The status is re-read under FOR UPDATE so two webhook
// deliveries racing past the handler's idempotency check cannot both grant;
// the unique constraint on user_purchases.payment_id backs the same
// guarantee at the schema level.
func (r *repository) SettleAndGrant(ctx context.Context, paymentID string, orderID int64, methodID int, amount float64, grant *pass.Grant) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var status Status
	err = tx.QueryRowxContext(ctx, `
		SELECT status
		FROM payments
		WHERE id = $1
		FOR UPDATE
	`, paymentID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrPaymentNotFound
		}
		return false, err
	}

	if status == StatusCompleted {
		return false, nil
	}

	transactionID := strconv.FormatInt(orderID, 10)

	_, err = tx.ExecContext(ctx, `
		UPDATE payments
		SET status = 'completed',
		    transaction_id = $2,
		    method_id = $3,
		    amount = $4,
		    updated_at = NOW()
		WHERE id = $1
	`, paymentID, transactionID, methodID, amount)
	if err != nil {
		return false, err
	}

	if grant != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_purchases (user_id, package_id, payment_id, classes_remaining, classes_used, purchase_date, expiry_date, status)
			VALUES ($1, $2, $3, $4, 0, NOW(), $5, 'active')
		`, grant.UserID, grant.PackageID, paymentID, grant.ClassCount, grant.ExpiryDate)
		if err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	return true, nil
}
