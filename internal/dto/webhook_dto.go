package dto

// PayClickWebhook is the payment provider's callback payload. Signature
// covers all other fields, HMAC-SHA256 over the key-sorted form.
type PayClickWebhook struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	Amount    string `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Signature string `json:"signature"`
}
