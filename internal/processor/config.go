package processor

import (
	"errors"
	"strings"
)

// Config holds the merchant credentials for the Przelewy24 REST API. There
// are no safe defaults; Validate is called by NewClient and the service
// refuses to start on an incomplete config.
type Config struct {
	BaseURL    string
	MerchantID int
	PosID      int
	CRC        string
	APIKey     string
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("processor: base URL is required")
	}
	if c.MerchantID <= 0 {
		return errors.New("processor: merchant id is required")
	}
	if c.PosID <= 0 {
		return errors.New("processor: pos id is required")
	}
	if c.CRC == "" {
		return errors.New("processor: CRC key is required")
	}
	if c.APIKey == "" {
		return errors.New("processor: API key is required")
	}
	return nil
}
