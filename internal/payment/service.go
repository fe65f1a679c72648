package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studiopass/internal/catalog"
	"studiopass/internal/logger"
	"studiopass/internal/metrics"
	"studiopass/internal/pass"
	"studiopass/internal/processor"
	"studiopass/internal/schedule"
)

var (
	ErrMalformedNotification = errors.New("malformed notification")
	ErrInvalidSignature      = errors.New("invalid notification signature")
	ErrVerificationFailed    = errors.New("transaction verification failed")
	ErrPaymentNotPending     = errors.New("payment is not pending")
)

// ProcessorClient is the slice of the processor API this service needs.
// Satisfied by *processor.Client; tests inject a double.
type ProcessorClient interface {
	RegisterTransaction(ctx context.Context, r processor.RegisterRequest) (string, error)
	VerifyTransaction(ctx context.Context, sessionID string, orderID, amount int64, currency string) bool
	VerifyNotificationSign(n processor.Notification) bool
}

type InitiateRequest struct {
	UserID     int    `json:"user_id" binding:"required,gt=0"`
	PackageID  int    `json:"package_id" binding:"required,gt=0"`
	AutoEnroll bool   `json:"auto_enroll"`
	Email      string `json:"email" binding:"required,email"`
	Name       string `json:"name" binding:"required"`
}

type Service interface {
	InitiatePurchase(ctx context.Context, req InitiateRequest) (*Payment, string, error)
	RetryRegistration(ctx context.Context, paymentID string) (string, error)
	HandleNotification(ctx context.Context, n processor.Notification) error
	GetPayment(ctx context.Context, id string) (*Payment, error)
}

type service struct {
	payments  Repository
	packages  catalog.Repository
	passes    pass.Repository
	schedule  schedule.Repository
	client    ProcessorClient
	returnURL string
	statusURL string
}

func NewService(
	payments Repository,
	packages catalog.Repository,
	passes pass.Repository,
	scheduleRepo schedule.Repository,
	client ProcessorClient,
	returnURL string,
	statusURL string,
) Service {
	return &service{
		payments:  payments,
		packages:  packages,
		passes:    passes,
		schedule:  scheduleRepo,
		client:    client,
		returnURL: returnURL,
		statusURL: statusURL,
	}
}

// InitiatePurchase creates a pending payment for the chosen package and
// registers it with the processor. When registration fails the payment stays
// pending; the caller can surface a retry and re-register the same payment.
func (s *service) InitiatePurchase(ctx context.Context, req InitiateRequest) (*Payment, string, error) {
	pkg, err := s.packages.GetPackageByID(ctx, req.PackageID)
	if err != nil {
		return nil, "", err
	}

	p := &Payment{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		Amount:      pkg.Price,
		Currency:    "PLN",
		Status:      StatusPending,
		Method:      "przelewy24",
		PackageID:   pkg.ID,
		AutoEnroll:  req.AutoEnroll,
		Description: fmt.Sprintf("%s pass purchase", pkg.Name),
		Email:       req.Email,
		PayerName:   req.Name,
	}

	created, err := s.payments.CreatePending(ctx, p)
	if err != nil {
		return nil, "", err
	}

	redirectURL, err := s.register(ctx, created)
	if err != nil {
		metrics.RecordRegistration("error")
		logger.Error("transaction registration failed",
			"payment_id", created.ID,
			"error", err.Error(),
		)
		return created, "", err
	}

	metrics.RecordRegistration("success")
	logger.Info("transaction registered",
		"payment_id", created.ID,
		"amount", created.Amount,
		"package_id", created.PackageID,
	)

	return created, redirectURL, nil
}

// RetryRegistration re-registers a still-pending payment, producing a fresh
// redirect URL for the same session id.
func (s *service) RetryRegistration(ctx context.Context, paymentID string) (string, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return "", err
	}

	if p.Status != StatusPending {
		return "", ErrPaymentNotPending
	}

	redirectURL, err := s.register(ctx, p)
	if err != nil {
		metrics.RecordRegistration("error")
		return "", err
	}

	metrics.RecordRegistration("success")
	return redirectURL, nil
}

func (s *service) register(ctx context.Context, p *Payment) (string, error) {
	return s.client.RegisterTransaction(ctx, processor.RegisterRequest{
		SessionID:   p.ID,
		Amount:      p.AmountMinorUnits(),
		Currency:    p.Currency,
		Description: p.Description,
		Email:       p.Email,
		Client:      p.PayerName,
		URLReturn:   s.returnURL,
		URLStatus:   s.statusURL,
	})
}

func (s *service) GetPayment(ctx context.Context, id string) (*Payment, error) {
	return s.payments.GetByID(ctx, id)
}

// HandleNotification drives the settlement state machine for one webhook
// delivery: authenticate, confirm with the processor, pass the idempotency
// gate, settle and grant atomically, then best-effort auto-enroll.
//
// The error it returns tells the handler how to answer: nil means 200 (the
// notification was settled now or had already been settled),
// ErrMalformedNotification / ErrInvalidSignature / ErrVerificationFailed
// mean 400, ErrPaymentNotFound means 404, anything else is a 500 so the
// processor redelivers.
func (s *service) HandleNotification(ctx context.Context, n processor.Notification) error {
	if n.SessionID == "" || n.OrderID == 0 || n.Sign == "" {
		metrics.RecordWebhookNotification("malformed")
		return ErrMalformedNotification
	}

	if !s.client.VerifyNotificationSign(n) {
		metrics.RecordWebhookNotification("bad_signature")
		logger.Warn("webhook signature mismatch, possible forged or corrupted notification",
			"session_id", n.SessionID,
			"order_id", n.OrderID,
		)
		return ErrInvalidSignature
	}

	if !s.client.VerifyTransaction(ctx, n.SessionID, n.OrderID, n.Amount, n.Currency) {
		metrics.RecordWebhookNotification("unverified")
		logger.Warn("transaction verification failed, payment stays pending",
			"session_id", n.SessionID,
			"order_id", n.OrderID,
		)
		return ErrVerificationFailed
	}

	p, err := s.payments.GetByID(ctx, n.SessionID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			metrics.RecordWebhookNotification("unknown_payment")
			logger.Error("verified notification for unknown payment",
				"session_id", n.SessionID,
				"order_id", n.OrderID,
			)
		}
		return err
	}

	if p.Status == StatusCompleted {
		metrics.RecordWebhookNotification("duplicate")
		logger.Info("duplicate notification for settled payment",
			"payment_id", p.ID,
		)
		return nil
	}

	// Resolve the grant before opening the settlement transaction. A missing
	// package is a data-entry bug upstream, not a protocol violation: the
	// payment still settles, the lost grant is logged and counted so an
	// operator can repair it, and the processor is answered 200 so it stops
	// retrying a notification that can never succeed differently.
	var grant *pass.Grant
	pkg, err := s.packages.GetPackageByID(ctx, p.PackageID)
	if err != nil {
		if !errors.Is(err, catalog.ErrPackageNotFound) {
			return err
		}
		logger.Error("package missing for settled payment, entitlement cannot be granted",
			"payment_id", p.ID,
			"package_id", p.PackageID,
		)
		metrics.RecordLostGrant()
	} else {
		grant = &pass.Grant{
			UserID:     p.UserID,
			PackageID:  pkg.ID,
			ClassCount: pkg.ClassCount,
			ExpiryDate: time.Now().AddDate(0, 0, pkg.ValidityDays),
		}
	}

	settledAmount := float64(n.Amount) / 100

	settled, err := s.payments.SettleAndGrant(ctx, p.ID, n.OrderID, n.MethodID, settledAmount, grant)
	if err != nil {
		metrics.RecordWebhookNotification("settlement_error")
		return fmt.Errorf("settle payment %s: %w", p.ID, err)
	}

	if !settled {
		// Lost the race against a concurrent delivery of the same
		// notification; the other one granted.
		metrics.RecordWebhookNotification("duplicate")
		return nil
	}

	metrics.RecordWebhookNotification("settled")
	metrics.RecordSettlement()
	logger.Info("payment settled",
		"payment_id", p.ID,
		"order_id", n.OrderID,
		"amount", settledAmount,
	)

	if p.AutoEnroll && grant != nil {
		s.autoEnroll(ctx, p, pkg)
	}

	return nil
}

// autoEnroll books the purchaser into the next upcoming instance of each
// class template linked to the package, spending one credit per booking.
// Templates are processed independently; one failure never blocks the rest,
// and running out of credits is a silent skip, not an error. Failures here
// never fail the webhook: the payment is settled and acknowledged.
func (s *service) autoEnroll(ctx context.Context, p *Payment, pkg *catalog.Package) {
	if pkg.IsUniversal() {
		return
	}

	purchase, err := s.passes.GetByPaymentID(ctx, p.ID)
	if err != nil {
		logger.Error("auto-enroll: pass lookup failed",
			"payment_id", p.ID,
			"error", err.Error(),
		)
		return
	}

	for _, templateID := range pkg.ClassTemplateIDs {
		instance, err := s.schedule.GetNextInstance(ctx, templateID, time.Now())
		if err != nil {
			if errors.Is(err, schedule.ErrNoUpcomingInstance) {
				metrics.RecordAutoEnrollment("no_instance")
				continue
			}
			metrics.RecordAutoEnrollment("error")
			logger.Error("auto-enroll: next instance lookup failed",
				"template_id", templateID,
				"error", err.Error(),
			)
			continue
		}

		has, err := s.schedule.UserHasAttendance(ctx, p.UserID, instance.ID)
		if err != nil {
			metrics.RecordAutoEnrollment("error")
			logger.Error("auto-enroll: attendance check failed",
				"class_instance_id", instance.ID,
				"error", err.Error(),
			)
			continue
		}
		if has {
			metrics.RecordAutoEnrollment("already_booked")
			continue
		}

		err = s.passes.ConsumeForClass(ctx, purchase.ID, p.UserID, instance.ID)
		switch {
		case err == nil:
			metrics.RecordAutoEnrollment("booked")
			logger.Info("auto-enrolled purchaser into class",
				"payment_id", p.ID,
				"class_instance_id", instance.ID,
				"template_id", templateID,
			)
		case errors.Is(err, pass.ErrNoClassesRemaining):
			// Out of credits for optional auto-booking is not a failure.
			metrics.RecordAutoEnrollment("no_credits")
		case errors.Is(err, pass.ErrAlreadyAttending):
			metrics.RecordAutoEnrollment("already_booked")
		default:
			metrics.RecordAutoEnrollment("error")
			logger.Error("auto-enroll: booking failed",
				"class_instance_id", instance.ID,
				"error", err.Error(),
			)
		}
	}
}
