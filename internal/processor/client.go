package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Notification is the payload the processor delivers to the status webhook.
// Amount fields are integers in the currency's smallest unit.
type Notification struct {
	MerchantID   int    `json:"merchantId" form:"merchantId"`
	PosID        int    `json:"posId" form:"posId"`
	SessionID    string `json:"sessionId" form:"sessionId"`
	Amount       int64  `json:"amount" form:"amount"`
	OriginAmount int64  `json:"originAmount" form:"originAmount"`
	Currency     string `json:"currency" form:"currency"`
	OrderID      int64  `json:"orderId" form:"orderId"`
	MethodID     int    `json:"methodId" form:"methodId"`
	Statement    string `json:"statement" form:"statement"`
	Sign         string `json:"sign" form:"sign"`
}

// RegisterRequest describes one pending purchase to register with the
// processor. SessionID must be the payment's own id; it is the correlation
// key the webhook reports back. Amount is in minor units, converted by the
// caller.
type RegisterRequest struct {
	SessionID   string
	Amount      int64
	Currency    string
	Description string
	Email       string
	Client      string
	URLReturn   string
	URLStatus   string
}

// RegistrationError carries the upstream status and body so operators can
// diagnose failed registrations. The payment stays PENDING.
type RegistrationError struct {
	StatusCode int
	Body       string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("processor: transaction registration failed: status=%d body=%s", e.StatusCode, e.Body)
}

// Client talks to the processor's REST API. It is constructed explicitly and
// injected wherever processor calls are needed, so tests can point it at a
// stub server.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

type registerBody struct {
	MerchantID  int    `json:"merchantId"`
	PosID       int    `json:"posId"`
	SessionID   string `json:"sessionId"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	Email       string `json:"email"`
	Client      string `json:"client"`
	Country     string `json:"country"`
	Language    string `json:"language"`
	URLReturn   string `json:"urlReturn"`
	URLStatus   string `json:"urlStatus"`
	Sign        string `json:"sign"`
}

type registerResponse struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

// RegisterTransaction registers a pending purchase and returns the URL the
// purchaser should be redirected to. On any upstream failure it returns a
// *RegistrationError and the caller must not assume the transaction exists.
func (c *Client) RegisterTransaction(ctx context.Context, r RegisterRequest) (string, error) {
	body := registerBody{
		MerchantID:  c.cfg.MerchantID,
		PosID:       c.cfg.PosID,
		SessionID:   r.SessionID,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Description: r.Description,
		Email:       r.Email,
		Client:      r.Client,
		Country:     "PL",
		Language:    "pl",
		URLReturn:   r.URLReturn,
		URLStatus:   r.URLStatus,
		Sign:        c.registerSign(r.SessionID, r.Amount, r.Currency),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal register request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/transaction/register", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create register request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(strconv.Itoa(c.cfg.PosID), c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("register transaction: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &RegistrationError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed registerResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || parsed.Data.Token == "" {
		return "", &RegistrationError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return c.baseURL + "/trnRequest/" + parsed.Data.Token, nil
}

type verifyBody struct {
	MerchantID int    `json:"merchantId"`
	PosID      int    `json:"posId"`
	SessionID  string `json:"sessionId"`
	OrderID    int64  `json:"orderId"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Sign       string `json:"sign"`
}

type verifyResponse struct {
	Data struct {
		Status string `json:"status"`
	} `json:"data"`
}

// VerifyTransaction confirms server-to-server that a reported payment really
// occurred. It returns true only when the processor explicitly reports
// success. Transport errors, non-2xx statuses and ambiguous payloads all
// mean "not provably paid" and come back as false, never as an error.
func (c *Client) VerifyTransaction(ctx context.Context, sessionID string, orderID, amount int64, currency string) bool {
	body := verifyBody{
		MerchantID: c.cfg.MerchantID,
		PosID:      c.cfg.PosID,
		SessionID:  sessionID,
		OrderID:    orderID,
		Amount:     amount,
		Currency:   currency,
		Sign:       c.verifySign(sessionID, orderID, amount, currency),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/v1/transaction/verify", bytes.NewReader(payload))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(strconv.Itoa(c.cfg.PosID), c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}

	var parsed verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false
	}

	return parsed.Data.Status == "success"
}
