package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"studiopass/internal/processor"
)

type MockService struct{ mock.Mock }

func (m *MockService) InitiatePurchase(ctx context.Context, req InitiateRequest) (*Payment, string, error) {
	args := m.Called(ctx, req)
	var p *Payment
	if args.Get(0) != nil {
		p = args.Get(0).(*Payment)
	}
	return p, args.String(1), args.Error(2)
}

func (m *MockService) RetryRegistration(ctx context.Context, paymentID string) (string, error) {
	args := m.Called(ctx, paymentID)
	return args.String(0), args.Error(1)
}

func (m *MockService) HandleNotification(ctx context.Context, n processor.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockService) GetPayment(ctx context.Context, id string) (*Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payment), args.Error(1)
}

func setupHandlerTest() (*gin.Engine, *MockService) {
	gin.SetMode(gin.TestMode)
	svc := new(MockService)
	h := NewHandler(svc)

	router := gin.New()
	router.POST("/api/payments", h.InitiatePayment)
	router.POST("/api/payments/webhook", h.Webhook)
	router.POST("/api/payments/:paymentID/register", h.RetryPayment)
	router.GET("/api/payments/:paymentID", h.GetPayment)

	return router, svc
}

func TestWebhook_JSONNotification(t *testing.T) {
	router, svc := setupHandlerTest()

	svc.On("HandleNotification", mock.Anything, mock.MatchedBy(func(n processor.Notification) bool {
		return n.SessionID == "p1" && n.OrderID == 99 && n.Amount == 14000 && n.Sign == "abc"
	})).Return(nil)

	body := `{"merchantId":1001,"posId":1001,"sessionId":"p1","amount":14000,"originAmount":14000,"currency":"PLN","orderId":99,"methodId":154,"statement":"Pass purchase p1","sign":"abc"}`

	req := httptest.NewRequest("POST", "/api/payments/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	svc.AssertExpectations(t)
}

func TestWebhook_FormNotification(t *testing.T) {
	router, svc := setupHandlerTest()

	svc.On("HandleNotification", mock.Anything, mock.MatchedBy(func(n processor.Notification) bool {
		return n.SessionID == "p1" && n.OrderID == 99 && n.Currency == "PLN"
	})).Return(nil)

	form := url.Values{}
	form.Set("merchantId", "1001")
	form.Set("posId", "1001")
	form.Set("sessionId", "p1")
	form.Set("amount", "14000")
	form.Set("originAmount", "14000")
	form.Set("currency", "PLN")
	form.Set("orderId", "99")
	form.Set("methodId", "154")
	form.Set("statement", "Pass purchase p1")
	form.Set("sign", "abc")

	req := httptest.NewRequest("POST", "/api/payments/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	svc.AssertExpectations(t)
}

func TestWebhook_MalformedBody(t *testing.T) {
	router, svc := setupHandlerTest()

	req := httptest.NewRequest("POST", "/api/payments/webhook", strings.NewReader(`{"orderId": not-json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "HandleNotification", mock.Anything, mock.Anything)
}

func TestWebhook_StatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"malformed notification", ErrMalformedNotification, http.StatusBadRequest},
		{"invalid signature", ErrInvalidSignature, http.StatusBadRequest},
		{"verification failed", ErrVerificationFailed, http.StatusBadRequest},
		{"unknown payment", ErrPaymentNotFound, http.StatusNotFound},
		{"internal failure", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, svc := setupHandlerTest()
			svc.On("HandleNotification", mock.Anything, mock.Anything).Return(tc.serviceErr)

			body := `{"sessionId":"p1","orderId":99,"sign":"abc"}`
			req := httptest.NewRequest("POST", "/api/payments/webhook", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestInitiatePayment_Success(t *testing.T) {
	router, svc := setupHandlerTest()

	p := &Payment{ID: "p1", UserID: 5, Amount: 140.00, Currency: "PLN", Status: StatusPending}
	svc.On("InitiatePurchase", mock.Anything, mock.MatchedBy(func(r InitiateRequest) bool {
		return r.UserID == 5 && r.PackageID == 3 && r.AutoEnroll
	})).Return(p, "https://sandbox.przelewy24.pl/trnRequest/tok-1", nil)

	body := `{"user_id":5,"package_id":3,"auto_enroll":true,"email":"dancer@example.com","name":"Anna Kowalska"}`
	req := httptest.NewRequest("POST", "/api/payments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp InitiateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "p1", resp.Payment.ID)
	assert.Contains(t, resp.RedirectURL, "/trnRequest/")
}

func TestInitiatePayment_ValidationRejectsBadBody(t *testing.T) {
	router, svc := setupHandlerTest()

	cases := []string{
		`{"package_id":3,"email":"dancer@example.com","name":"Anna"}`,       // missing user_id
		`{"user_id":5,"email":"dancer@example.com","name":"Anna"}`,          // missing package_id
		`{"user_id":5,"package_id":3,"email":"not-an-email","name":"Anna"}`, // bad email
		`{"user_id":5,"package_id":3,"email":"dancer@example.com"}`,         // missing name
	}

	for _, body := range cases {
		req := httptest.NewRequest("POST", "/api/payments", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
	}

	svc.AssertNotCalled(t, "InitiatePurchase", mock.Anything, mock.Anything)
}

func TestInitiatePayment_RegistrationFailure(t *testing.T) {
	router, svc := setupHandlerTest()

	p := &Payment{ID: "p1", Status: StatusPending}
	regErr := &processor.RegistrationError{StatusCode: 503, Body: "unavailable"}
	svc.On("InitiatePurchase", mock.Anything, mock.Anything).Return(p, "", regErr)

	body := `{"user_id":5,"package_id":3,"email":"dancer@example.com","name":"Anna"}`
	req := httptest.NewRequest("POST", "/api/payments", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "try again")
	assert.Contains(t, w.Body.String(), "p1")
}

func TestRetryPayment(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, svc := setupHandlerTest()
		svc.On("RetryRegistration", mock.Anything, "p1").
			Return("https://sandbox.przelewy24.pl/trnRequest/tok-2", nil)

		req := httptest.NewRequest("POST", "/api/payments/p1/register", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "tok-2")
	})

	t.Run("not pending", func(t *testing.T) {
		router, svc := setupHandlerTest()
		svc.On("RetryRegistration", mock.Anything, "p1").Return("", ErrPaymentNotPending)

		req := httptest.NewRequest("POST", "/api/payments/p1/register", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestGetPayment(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		router, svc := setupHandlerTest()

		txID := "99"
		p := &Payment{ID: "p1", Status: StatusCompleted, TransactionID: &txID}
		svc.On("GetPayment", mock.Anything, "p1").Return(p, nil)

		req := httptest.NewRequest("GET", "/api/payments/p1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var got Payment
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, StatusCompleted, got.Status)
		assert.Equal(t, "99", *got.TransactionID)
	})

	t.Run("not found", func(t *testing.T) {
		router, svc := setupHandlerTest()
		svc.On("GetPayment", mock.Anything, "ghost").Return(nil, ErrPaymentNotFound)

		req := httptest.NewRequest("GET", "/api/payments/ghost", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
