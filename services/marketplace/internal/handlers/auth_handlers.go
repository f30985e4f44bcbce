package handlers

import (
	"net/http"

	"github.com/diagnosis/chefconnect/pkg/logger"
)

type verifyOTPReq struct {
	IDToken string `json:"idToken"`
}

// VerifyOTP exchanges a phone-verified identity token for the caller's user row.
func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPReq
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.SignIn(r.Context(), req.IDToken)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "user", user, "Authentication successful")
}

// Logout is stateless; sessions live with the identity provider.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	logger.InfoContext(r.Context(), "User logged out", "remote_addr", r.RemoteAddr)
	writeSuccess(w, http.StatusOK, "", nil, "Logout successful")
}
