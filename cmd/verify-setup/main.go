// Command verify-setup reports which settings are configured and whether
// the backing services answer.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/diagnosis/chefconnect/pkg/cache"
	"github.com/diagnosis/chefconnect/pkg/config"
	"github.com/diagnosis/chefconnect/pkg/database"
	"github.com/diagnosis/chefconnect/pkg/events"
)

const pingTimeout = 5 * time.Second

type setting struct {
	name     string
	value    string
	secret   bool
	required bool
}

type section struct {
	title    string
	settings []setting
}

func sections(cfg *config.Config) []section {
	return []section{
		{"Database", []setting{
			{name: "DATABASE_URL", value: cfg.Database.URL, secret: true, required: true},
		}},
		{"Identity (Firebase)", []setting{
			{name: "FIREBASE_ADMIN_PROJECT_ID", value: cfg.Firebase.ProjectID},
			{name: "FIREBASE_ADMIN_CLIENT_EMAIL", value: cfg.Firebase.ClientEmail},
			{name: "FIREBASE_ADMIN_PRIVATE_KEY", value: cfg.Firebase.PrivateKey, secret: true},
		}},
		{"Events and cache", []setting{
			{name: "NATS_URL", value: cfg.NATS.URL},
			{name: "REDIS_URL", value: cfg.Redis.URL, secret: true},
		}},
		{"Payments (Stripe)", []setting{
			{name: "STRIPE_SECRET_KEY", value: cfg.Stripe.SecretKey, secret: true},
			{name: "STRIPE_WEBHOOK_SECRET", value: cfg.Stripe.WebhookSecret, secret: true},
		}},
		{"Email (MailerSend)", []setting{
			{name: "MAILERSEND_API_KEY", value: cfg.Email.MailerSendKey, secret: true},
			{name: "MAILER_FROM", value: cfg.Email.FromEmail},
		}},
	}
}

// mask shows enough of a value to recognise it.
func mask(s string, secret bool) string {
	limit := 50
	if secret {
		limit = 12
	}
	if len(s) <= limit {
		if secret {
			return s[:len(s)/2] + "..."
		}
		return s
	}
	return s[:limit] + "..."
}

// report prints every section and returns the number of missing required settings.
func report(w io.Writer, cfg *config.Config) int {
	missing := 0
	for _, sec := range sections(cfg) {
		fmt.Fprintf(w, "\n%s:\n", sec.title)
		for _, s := range sec.settings {
			switch {
			case s.value != "":
				fmt.Fprintf(w, "  ✓ %s: %s\n", s.name, mask(s.value, s.secret))
			case s.required:
				fmt.Fprintf(w, "  ✗ %s: NOT CONFIGURED\n", s.name)
				missing++
			default:
				fmt.Fprintf(w, "  - %s: not set (optional)\n", s.name)
			}
		}
	}
	return missing
}

type probe struct {
	name string
	run  func(ctx context.Context) error
}

func probes(cfg *config.Config) []probe {
	ps := []probe{{"postgres", func(ctx context.Context) error {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		pool.Close()
		return nil
	}}}

	if cfg.NATS.URL != "" {
		ps = append(ps, probe{"nats", func(ctx context.Context) error {
			bus, err := events.NewNATSEventBus(cfg.NATS.URL, "verify-setup")
			if err != nil {
				return err
			}
			defer bus.Close()
			return bus.Flush()
		}})
	}
	if cfg.Redis.URL != "" {
		ps = append(ps, probe{"redis", func(ctx context.Context) error {
			store, err := cache.NewRedisStore(ctx, cfg.Redis.URL)
			if err != nil {
				return err
			}
			return store.Close()
		}})
	}
	return ps
}

// ping runs every probe concurrently and returns the failures by name.
func ping(ctx context.Context, ps []probe) map[string]error {
	var (
		mu       sync.Mutex
		failures = map[string]error{}
	)

	var g errgroup.Group
	for _, p := range ps {
		p := p
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			defer cancel()
			if err := p.run(pctx); err != nil {
				mu.Lock()
				failures[p.name] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failures
}

func main() {
	fmt.Println("\n🔍 ChefConnect Setup Verification")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("\n✗ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	missing := report(os.Stdout, cfg)

	ps := probes(cfg)
	failures := ping(context.Background(), ps)
	fmt.Println("\nConnectivity:")
	for _, p := range ps {
		if err, ok := failures[p.name]; ok {
			fmt.Printf("  ✗ %s: %v\n", p.name, err)
		} else {
			fmt.Printf("  ✓ %s: reachable\n", p.name)
		}
	}

	if missing > 0 || len(failures) > 0 {
		fmt.Printf("\n✗ Setup incomplete: %d missing setting(s), %d unreachable service(s)\n", missing, len(failures))
		os.Exit(1)
	}
	fmt.Println("\n✓ All required configuration is present and reachable")
}
