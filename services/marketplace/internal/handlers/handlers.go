package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/diagnosis/chefconnect/pkg/auth"
	"github.com/diagnosis/chefconnect/pkg/logger"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
	"github.com/diagnosis/chefconnect/services/marketplace/internal/service"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	userService    service.UserService
	chefService    service.ChefService
	bookingService service.BookingService
	paymentService service.PaymentService
	verifier       auth.Verifier
}

// New wires the HTTP layer. payments may be nil, in which case the payment
// routes are not mounted.
func New(
	users service.UserService,
	chefs service.ChefService,
	bookings service.BookingService,
	payments service.PaymentService,
	verifier auth.Verifier,
) *Handlers {
	return &Handlers{
		userService:    users,
		chefService:    chefs,
		bookingService: bookings,
		paymentService: payments,
		verifier:       verifier,
	}
}

// RouteOptions carries optional Redis-backed middleware. Nil entries are skipped.
type RouteOptions struct {
	Idempotency   func(http.Handler) http.Handler
	AuthRateLimit func(http.Handler) http.Handler
}

func passthrough(next http.Handler) http.Handler { return next }

func orPassthrough(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return passthrough
	}
	return mw
}

// Register mounts every marketplace route on r.
func (h *Handlers) Register(r chi.Router, opts RouteOptions) {
	idem := orPassthrough(opts.Idempotency)
	limit := orPassthrough(opts.AuthRateLimit)

	r.Route("/auth", func(r chi.Router) {
		r.With(limit).Post("/verify-otp", h.VerifyOTP)
		r.Post("/logout", h.Logout)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(h.RequireUser)
		r.Get("/", h.GetUser)
		r.Put("/", h.UpdateUser)
		r.Delete("/", h.DeleteUser)
	})

	r.Route("/chefs", func(r chi.Router) {
		r.Get("/", h.GetChefs)
		r.Group(func(r chi.Router) {
			r.Use(h.RequireUser)
			r.Post("/", h.CreateChef)
			r.Put("/", h.UpdateChef)
			r.Delete("/", h.DeleteChef)
		})
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Use(h.RequireUser)
		r.Get("/", h.GetBookings)
		r.With(idem).Post("/", h.CreateBooking)
		r.Put("/", h.UpdateBooking)
		r.Delete("/", h.CancelBooking)
	})

	if h.paymentService != nil {
		r.Route("/payments", func(r chi.Router) {
			r.With(h.RequireUser, idem).Post("/intent", h.CreatePaymentIntent)
			r.Post("/webhook", h.PaymentWebhook)
		})
	}
}

type userCtxKey struct{}

// RequireUser verifies the bearer token and resolves the caller's user row.
// Token failures are answered before any persistence access.
func (h *Handlers) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header", CodeUnauthorized)
			return
		}

		id, err := h.verifier.Verify(r.Context(), token)
		if errors.Is(err, auth.ErrInvalidCredential) {
			logger.DebugContext(r.Context(), "Token verification failed", "error", err)
			writeError(w, http.StatusUnauthorized, "Invalid or expired token", CodeUnauthorized)
			return
		}
		if err != nil {
			respondError(w, r, err)
			return
		}
		ctx := auth.WithIdentity(r.Context(), id)

		user, err := h.userService.Resolve(ctx, id.Subject)
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found", CodeNotFound)
			return
		}
		if err != nil {
			respondError(w, r, err)
			return
		}

		ctx = logger.WithUserID(ctx, user.ID.String())
		ctx = context.WithValue(ctx, userCtxKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(r *http.Request) *domain.User {
	u, _ := r.Context().Value(userCtxKey{}).(*domain.User)
	return u
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", CodeInvalidInput)
		return false
	}
	return true
}

// queryID parses an optional ?id= parameter. ok is false after a 400 was written.
func queryID(w http.ResponseWriter, r *http.Request) (id uuid.UUID, present, ok bool) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		return uuid.Nil, false, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id parameter", CodeInvalidInput)
		return uuid.Nil, true, false
	}
	return id, true, true
}

// Helper to parse pagination parameters
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
