package processor

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// The processor signs requests with SHA-384 over a canonical JSON string.
// Field order and formatting are part of the wire contract, so the strings
// are built by hand rather than through encoding/json.

func (c *Client) registerSign(sessionID string, amount int64, currency string) string {
	payload := fmt.Sprintf(`{"sessionId":%q,"merchantId":%d,"amount":%d,"currency":%q,"crc":%q}`,
		sessionID, c.cfg.MerchantID, amount, currency, c.cfg.CRC)
	return sha384Hex(payload)
}

func (c *Client) verifySign(sessionID string, orderID, amount int64, currency string) string {
	payload := fmt.Sprintf(`{"sessionId":%q,"orderId":%d,"amount":%d,"currency":%q,"crc":%q}`,
		sessionID, orderID, amount, currency, c.cfg.CRC)
	return sha384Hex(payload)
}

func (c *Client) notificationSign(n Notification) string {
	payload := fmt.Sprintf(`{"merchantId":%d,"posId":%d,"sessionId":%q,"amount":%d,"originAmount":%d,"currency":%q,"orderId":%d,"methodId":%d,"statement":%q,"crc":%q}`,
		n.MerchantID, n.PosID, n.SessionID, n.Amount, n.OriginAmount,
		n.Currency, n.OrderID, n.MethodID, n.Statement, c.cfg.CRC)
	return sha384Hex(payload)
}

// VerifyNotificationSign recomputes the notification signature and compares
// it with the one the processor sent. Comparison is constant time.
func (c *Client) VerifyNotificationSign(n Notification) bool {
	expected := c.notificationSign(n)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(n.Sign)) == 1
}

func sha384Hex(payload string) string {
	sum := sha512.Sum384([]byte(payload))
	return hex.EncodeToString(sum[:])
}
