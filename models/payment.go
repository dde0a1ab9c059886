package models

// CartConfirmation is returned by ConfirmCart: the handoff token the payment
// flow needs plus the items it covers.
type CartConfirmation struct {
	SessionID    string          `json:"sessionId"`
	HandoffToken string          `json:"handoffToken"`
	Total        float64         `json:"total"`
	Currency     string          `json:"currency"`
	Items        []ConfirmedItem `json:"items"`
}

// PaymentResult is the callback payload from the payment collaborator.
type PaymentResult struct {
	SessionID string `json:"sessionId"`
	Success   bool   `json:"success"`
}
