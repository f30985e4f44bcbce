package testfixtures

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
)

// Published is one event captured by a RecordingPublisher.
type Published struct {
	Subject string
	Data    interface{}
}

type RecordingPublisher struct {
	mu     sync.Mutex
	events []Published
	Err    error
}

func (p *RecordingPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, Published{Subject: subject, Data: data})
	return nil
}

func (p *RecordingPublisher) Close() error { return nil }

func (p *RecordingPublisher) Events() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Published, len(p.events))
	copy(out, p.events)
	return out
}

// Subjects lists the published subjects in order.
func (p *RecordingPublisher) Subjects() []string {
	var out []string
	for _, e := range p.Events() {
		out = append(out, e.Subject)
	}
	return out
}

type FakeAdmin struct {
	mu      sync.Mutex
	Deleted []string
	Err     error
}

func (a *FakeAdmin) DeleteAccount(ctx context.Context, subject string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return a.Err
	}
	a.Deleted = append(a.Deleted, subject)
	return nil
}

// FakeGateway issues predictable intents and returns Event from ParseWebhook.
type FakeGateway struct {
	mu        sync.Mutex
	Intents   []domain.PaymentIntent
	Event     *domain.PaymentEvent
	CreateErr error
	ParseErr  error
}

func (g *FakeGateway) CreateIntent(ctx context.Context, bookingID uuid.UUID, amount int64, currency string) (*domain.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	intent := domain.PaymentIntent{
		ID:           "pi_" + bookingID.String()[:8],
		ClientSecret: fmt.Sprintf("pi_%s_secret", bookingID.String()[:8]),
		Amount:       amount,
		Currency:     currency,
	}
	g.Intents = append(g.Intents, intent)
	return &intent, nil
}

func (g *FakeGateway) ParseWebhook(payload []byte, signature string) (*domain.PaymentEvent, error) {
	if g.ParseErr != nil {
		return nil, g.ParseErr
	}
	return g.Event, nil
}
