package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// PayClickClient creates hosted checkout sessions and verifies webhook
// callbacks from the PayClick payment provider.
type PayClickClient struct {
	apiKey        string
	secretKey     string
	baseURL       string
	webhookSecret string
	client        *http.Client
}

func NewPayClickClient(apiKey, secretKey, baseURL, webhookSecret string) *PayClickClient {
	if baseURL == "" {
		baseURL = "https://api.payclick.com"
	}
	return &PayClickClient{
		apiKey:        apiKey,
		secretKey:     secretKey,
		baseURL:       strings.TrimRight(baseURL, "/"),
		webhookSecret: webhookSecret,
		client:        &http.Client{},
	}
}

type checkoutRequest struct {
	Amount      float64           `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	ReturnURL   string            `json:"return_url"`
	CancelURL   string            `json:"cancel_url"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Checkout is a created payment session.
type Checkout struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

// CreatePayment opens a checkout session and returns the provider's
// payment id plus the URL the client completes payment at.
func (c *PayClickClient) CreatePayment(ctx context.Context, amount float64, currency, description, returnURL, cancelURL string, metadata map[string]string) (*Checkout, error) {
	if currency == "" {
		currency = "USD"
	}
	if description == "" {
		description = "MedicoThink Subscription"
	}
	payload, err := json.Marshal(checkoutRequest{
		Amount:      amount,
		Currency:    currency,
		Description: description,
		ReturnURL:   returnURL,
		CancelURL:   cancelURL,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payclick request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payclick API error: status %d: %s", resp.StatusCode, string(body))
	}

	var checkout Checkout
	if err := json.Unmarshal(body, &checkout); err != nil {
		return nil, fmt.Errorf("payclick response: %w", err)
	}
	if checkout.ID == "" || checkout.CheckoutURL == "" {
		return nil, fmt.Errorf("payclick returned incomplete checkout")
	}
	return &checkout, nil
}

// VerifySignature checks the webhook HMAC. The signature covers every
// field except itself, key-sorted and joined as key=value pairs.
func (c *PayClickClient) VerifySignature(fields map[string]string, signature string) bool {
	if signature == "" {
		return false
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString("&")
		}
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(fields[k])
	}

	secret := c.webhookSecret
	if secret == "" {
		secret = c.secretKey
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sb.String()))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// MapStatus normalizes provider statuses onto payment record statuses.
func MapStatus(status string) string {
	switch status {
	case "completed", "success":
		return "completed"
	case "failed", "cancelled", "expired":
		return "failed"
	case "refunded", "partially_refunded":
		return "refunded"
	default:
		return "pending"
	}
}
