package domain

// Webhook event kinds the payment flow reacts to.
const (
	PaymentEventSucceeded = "payment_intent.succeeded"
	PaymentEventRefunded  = "charge.refunded"
)

type PaymentIntent struct {
	ID           string `json:"payment_intent_id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// PaymentEvent is a verified webhook notification reduced to what bookings need.
type PaymentEvent struct {
	ID       string
	Type     string
	IntentID string
}

type CreateIntentReq struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
}
