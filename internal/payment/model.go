package payment

import (
	"math"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Payment is one attempted pass purchase. Its id doubles as the processor
// session id, which is the correlation key the webhook reports back.
// Status only moves pending -> completed or pending -> failed; completed is
// terminal and re-processing a completed payment is a no-op.
type Payment struct {
	ID            string    `db:"id" json:"id"`
	UserID        int       `db:"user_id" json:"user_id"`
	Amount        float64   `db:"amount" json:"amount"`
	Currency      string    `db:"currency" json:"currency"`
	Status        Status    `db:"status" json:"status"`
	Method        string    `db:"method" json:"method"`
	MethodID      *int      `db:"method_id" json:"method_id,omitempty"`
	TransactionID *string   `db:"transaction_id" json:"transaction_id,omitempty"`
	PackageID     int       `db:"package_id" json:"package_id"`
	AutoEnroll    bool      `db:"auto_enroll" json:"auto_enroll"`
	Description   string    `db:"description" json:"description"`
	Email         string    `db:"email" json:"email"`
	PayerName     string    `db:"payer_name" json:"payer_name"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// AmountMinorUnits converts the decimal amount to the currency's smallest
// unit, the integer form the processor protocol speaks.
func (p *Payment) AmountMinorUnits() int64 {
	return int64(math.Round(p.Amount * 100))
}
