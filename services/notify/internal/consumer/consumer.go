// Package consumer turns booking and payment events into e-mails for the
// parties involved.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/diagnosis/chefconnect/pkg/events"
	"github.com/diagnosis/chefconnect/pkg/logger"
	"github.com/diagnosis/chefconnect/services/notify/internal/mailer"
)

const handleTimeout = 30 * time.Second

type Consumer struct {
	mailer mailer.Mailer
}

func New(m mailer.Mailer) *Consumer {
	return &Consumer{mailer: m}
}

// Start joins queue on the booking and payment subjects, so each event is
// handled by one notify replica.
func (c *Consumer) Start(sub events.Subscriber, queue string) error {
	for _, subject := range []string{events.AllBookings, events.AllPayments} {
		if err := sub.QueueSubscribe(subject, queue, c.onMessage); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		logger.Info("Subscribed to events", "subject", subject, "queue", queue)
	}
	return nil
}

func (c *Consumer) onMessage(msg *events.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if err := c.Handle(ctx, msg); err != nil {
		logger.ErrorContext(ctx, "Failed to handle event", "error", err, "subject", msg.Subject, "message_id", msg.ID)
	}
}

// Handle sends one e-mail per party that has an address. Delivery errors
// are collected so one bad recipient does not block the other.
func (c *Consumer) Handle(ctx context.Context, msg *events.Message) error {
	var ev events.BookingEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		return fmt.Errorf("decode %s: %w", msg.Subject, err)
	}

	var errs []error
	seen := map[string]bool{}
	for _, r := range []struct {
		party events.Party
		role  string
	}{
		{ev.Customer, roleCustomer},
		{ev.Chef, roleChef},
	} {
		if r.party.Email == "" || seen[r.party.Email] {
			continue
		}
		seen[r.party.Email] = true

		email, ok := compose(msg.Subject, r.role, r.party, ev)
		if !ok {
			logger.DebugContext(ctx, "No template for event", "subject", msg.Subject)
			return nil
		}

		id, err := c.mailer.Send(ctx, email)
		if err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", r.role, err))
			continue
		}
		logger.InfoContext(ctx, "Notification sent",
			"subject", msg.Subject,
			"booking_id", ev.BookingID,
			"recipient_role", r.role,
			"message_id", id,
		)
	}
	return errors.Join(errs...)
}

const (
	roleCustomer = "customer"
	roleChef     = "chef"
)

// compose renders the message for one recipient. ok is false for subjects
// that carry no notification.
func compose(subject, role string, to events.Party, ev events.BookingEvent) (mailer.Email, bool) {
	when := fmt.Sprintf("%s %s-%s", ev.BookingDate, ev.StartTime, ev.EndTime)

	var title, line string
	switch subject {
	case events.BookingCreated:
		if role == roleChef {
			title = "New booking request"
			line = fmt.Sprintf("%s requested a booking on %s at %s.", nameOr(ev.Customer.Name, "A customer"), when, ev.Location)
		} else {
			title = "Your booking request was sent"
			line = fmt.Sprintf("Your booking with %s on %s is pending confirmation.", nameOr(ev.Chef.Name, "your chef"), when)
		}
	case events.BookingUpdated:
		title = "Booking updated"
		line = fmt.Sprintf("Your booking on %s is now %s.", when, ev.Status)
		if ev.PrevStatus != "" {
			line = fmt.Sprintf("Your booking on %s moved from %s to %s.", when, ev.PrevStatus, ev.Status)
		}
	case events.BookingCancelled:
		title = "Booking cancelled"
		line = fmt.Sprintf("The booking on %s at %s was cancelled.", when, ev.Location)
	case events.PaymentCaptured:
		title = "Payment received"
		line = fmt.Sprintf("Payment of %.2f for the booking on %s was received.", ev.TotalAmount, when)
	case events.PaymentRefunded:
		title = "Payment refunded"
		line = fmt.Sprintf("Payment of %.2f for the booking on %s was refunded.", ev.TotalAmount, when)
	default:
		return mailer.Email{}, false
	}

	greeting := "Hi " + nameOr(to.Name, "there") + ","
	text := fmt.Sprintf("%s\n\n%s\n\nBooking reference: %s", greeting, line, ev.BookingID)
	body := fmt.Sprintf(`
		<h2>%s</h2>
		<p>%s</p>
		<p>%s</p>
		<p style="color: #888;">Booking reference: %s</p>
	`, html.EscapeString(title), html.EscapeString(greeting), html.EscapeString(line), html.EscapeString(ev.BookingID))

	return mailer.Email{
		ToEmail: to.Email,
		ToName:  to.Name,
		Subject: "ChefConnect: " + title,
		Text:    text,
		HTML:    body,
	}, true
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
