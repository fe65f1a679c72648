package pass

import "context"

type Repository interface {
	GetByPaymentID(ctx context.Context, paymentID string) (*UserPurchase, error)
	GetUserPasses(ctx context.Context, userID int) ([]UserPurchase, error)
	ConsumeForClass(ctx context.Context, purchaseID, userID, classInstanceID int) error
}
