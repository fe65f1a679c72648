package pass

import "time"

type Status string

const (
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusDepleted Status = "depleted"
)

// UserPurchase is a class pass: the credit balance a settled payment grants.
// classes_remaining + classes_used stays equal to the package's class count;
// credits only move between the two counters and never go negative.
type UserPurchase struct {
	ID               int       `db:"id" json:"id"`
	UserID           int       `db:"user_id" json:"user_id"`
	PackageID        int       `db:"package_id" json:"package_id"`
	PaymentID        string    `db:"payment_id" json:"payment_id"`
	ClassesRemaining int       `db:"classes_remaining" json:"classes_remaining"`
	ClassesUsed      int       `db:"classes_used" json:"classes_used"`
	PurchaseDate     time.Time `db:"purchase_date" json:"purchase_date"`
	ExpiryDate       time.Time `db:"expiry_date" json:"expiry_date"`
	Status           Status    `db:"status" json:"status"`
}

// Grant describes the pass to create when a payment settles. The settlement
// transaction in the payment repository writes it together with the status
// flip.
type Grant struct {
	UserID     int
	PackageID  int
	ClassCount int
	ExpiryDate time.Time
}
