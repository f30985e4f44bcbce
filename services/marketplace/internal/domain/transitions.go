package domain

import "fmt"

type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorChef     Actor = "chef"
)

type statusMove struct {
	From  BookingStatus
	To    BookingStatus
	Actor Actor
}

// The strict booking lifecycle. Payment moves are open to either party.
var statusMoves = map[statusMove]bool{
	{BookingPending, BookingCancelled, ActorCustomer}:   true,
	{BookingConfirmed, BookingCancelled, ActorCustomer}: true,

	{BookingPending, BookingConfirmed, ActorChef}:   true,
	{BookingPending, BookingCancelled, ActorChef}:   true,
	{BookingConfirmed, BookingCompleted, ActorChef}: true,
	{BookingConfirmed, BookingCancelled, ActorChef}: true,
}

var paymentMoves = map[[2]PaymentStatus]bool{
	{PaymentPending, PaymentPaid}:  true,
	{PaymentPaid, PaymentRefunded}: true,
}

// CheckStatusMove reports whether any role the requester holds on the
// booking may move it from one status to another. Staying put is allowed.
func CheckStatusMove(from, to BookingStatus, party Party) error {
	if from == to {
		return nil
	}
	if party.Customer && statusMoves[statusMove{from, to, ActorCustomer}] {
		return nil
	}
	if party.Chef && statusMoves[statusMove{from, to, ActorChef}] {
		return nil
	}
	return fmt.Errorf("%w: status %s -> %s", ErrInvalidTransition, from, to)
}

func CheckPaymentMove(from, to PaymentStatus) error {
	if from == to || paymentMoves[[2]PaymentStatus{from, to}] {
		return nil
	}
	return fmt.Errorf("%w: payment_status %s -> %s", ErrInvalidTransition, from, to)
}
