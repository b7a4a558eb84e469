package model

type StripePaymentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type StripePaymentIntent struct {
	ID               string              `json:"id"`
	ClientSecret     string              `json:"client_secret"`
	Status           string              `json:"status"`
	Amount           int64               `json:"amount"`
	Currency         string              `json:"currency"`
	Metadata         map[string]string   `json:"metadata,omitempty"`
	LastPaymentError *StripePaymentError `json:"last_payment_error,omitempty"`
}

type StripeEventData struct {
	Object StripePaymentIntent `json:"object"`
}

type StripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    StripeEventData `json:"data"`
}
