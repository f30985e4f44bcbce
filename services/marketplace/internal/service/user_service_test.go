package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/diagnosis/chefconnect/pkg/auth"
	"github.com/diagnosis/chefconnect/pkg/events"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/service"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/testfixtures"
)

const devSecret = "test-secret-test-secret-test-secret"

func (h *harness) userService() service.UserService {
	return service.NewUserService(h.users, auth.NewDevVerifier(devSecret), h.admin, h.publisher)
}

func devToken(t *testing.T, subject, phone string) string {
	t.Helper()
	tok, err := auth.NewDevToken(subject, phone, devSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewDevToken failed: %v", err)
	}
	return tok
}

func TestUserSignIn_CreatesThenReuses(t *testing.T) {
	h := newHarness(t)
	svc := h.userService()
	tok := devToken(t, "uid-new", "+15550001111")

	first, err := svc.SignIn(ctx, tok)
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if first.Role != domain.RoleCustomer || first.PhoneNumber != "+15550001111" {
		t.Fatalf("Expected new customer, got %+v", first)
	}

	second, err := svc.SignIn(ctx, tok)
	if err != nil {
		t.Fatalf("Second SignIn failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("Expected same user %s, got %s", first.ID, second.ID)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("Expected updated_at to advance")
	}
}

func TestUserSignIn_KeepsRole(t *testing.T) {
	h := newHarness(t)
	existing := h.store.AddUser("uid-chef", testfixtures.WithRole(domain.RoleChef))

	u, err := h.userService().SignIn(ctx, devToken(t, "uid-chef", existing.PhoneNumber))
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if u.Role != domain.RoleChef {
		t.Fatalf("Expected role chef, got %s", u.Role)
	}
}

func TestUserSignIn_Rejects(t *testing.T) {
	h := newHarness(t)
	svc := h.userService()

	var verr *domain.ValidationError
	if _, err := svc.SignIn(ctx, ""); !errors.As(err, &verr) {
		t.Fatalf("Expected validation error for empty token, got %v", err)
	}
	if _, err := svc.SignIn(ctx, "garbage"); !errors.Is(err, auth.ErrInvalidCredential) {
		t.Fatalf("Expected ErrInvalidCredential, got %v", err)
	}
	if _, err := svc.SignIn(ctx, devToken(t, "uid-no-phone", "")); !errors.As(err, &verr) {
		t.Fatalf("Expected validation error for missing phone, got %v", err)
	}
}

func TestUserGet_SelfOrAdmin(t *testing.T) {
	h := newHarness(t)
	alice := h.store.AddUser("alice")
	bob := h.store.AddUser("bob")
	admin := h.store.AddUser("admin", testfixtures.WithRole(domain.RoleAdmin))
	svc := h.userService()

	if u, err := svc.Get(ctx, alice, alice.ID); err != nil || u.ID != alice.ID {
		t.Fatalf("Expected self read, got %v", err)
	}
	if _, err := svc.Get(ctx, alice, bob.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden, got %v", err)
	}
	if u, err := svc.Get(ctx, admin, bob.ID); err != nil || u.ID != bob.ID {
		t.Fatalf("Expected admin read, got %v", err)
	}
	if _, err := svc.Get(ctx, admin, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestUserUpdate(t *testing.T) {
	h := newHarness(t)
	alice := h.store.AddUser("alice")
	svc := h.userService()

	u, err := svc.Update(ctx, alice, domain.UserPatch{FullName: strPtr("Alice A"), Email: strPtr("alice@example.com")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if u.FullName == nil || *u.FullName != "Alice A" || u.Email == nil || *u.Email != "alice@example.com" {
		t.Fatalf("Expected patched profile, got %+v", u)
	}
	if u.Role != domain.RoleCustomer {
		t.Fatalf("Expected role unchanged, got %s", u.Role)
	}

	var verr *domain.ValidationError
	if _, err := svc.Update(ctx, alice, domain.UserPatch{Email: strPtr("not-an-email")}); !errors.As(err, &verr) {
		t.Fatalf("Expected validation error, got %v", err)
	}
}

func TestUserDelete(t *testing.T) {
	h := newHarness(t)
	customer, _, chef := h.fixture()
	h.store.AddBooking(customer, chef, "2026-12-24", "18:00")

	if err := h.userService().Delete(ctx, customer); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := h.store.User(customer.ID); ok {
		t.Fatal("Expected user row removed")
	}
	if n := h.store.BookingCount(); n != 0 {
		t.Fatalf("Expected bookings cascaded, got %d", n)
	}
	if len(h.admin.Deleted) != 1 || h.admin.Deleted[0] != customer.FirebaseUID {
		t.Fatalf("Expected identity account %s deleted, got %v", customer.FirebaseUID, h.admin.Deleted)
	}
	if subjects := h.publisher.Subjects(); len(subjects) != 1 || subjects[0] != events.UserDeleted {
		t.Fatalf("Expected user.deleted, got %v", subjects)
	}
}

func TestUserDelete_AdminFailure(t *testing.T) {
	h := newHarness(t)
	alice := h.store.AddUser("alice")
	h.admin.Err = errors.New("identity provider down")

	if err := h.userService().Delete(ctx, alice); err == nil {
		t.Fatal("Expected error when the identity provider fails")
	}
	if len(h.publisher.Events()) != 0 {
		t.Fatalf("Expected no events, got %v", h.publisher.Subjects())
	}
}
