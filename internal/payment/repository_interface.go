package payment

import (
	"context"

	"studiopass/internal/pass"
)

type Repository interface {
	CreatePending(ctx context.Context, p *Payment) (*Payment, error)
	GetByID(ctx context.Context, id string) (*Payment, error)
	// SettleAndGrant marks the payment completed and creates its pass in one
	// transaction. It returns false when the payment was already completed,
	// in which case nothing is written.
	SettleAndGrant(ctx context.Context, paymentID string, orderID int64, methodID int, amount float64, grant *pass.Grant) (bool, error)
}
