package handlers

import (
	"net/http"

	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
)

// GetUser returns the caller, or the user named by ?id= for self or admin.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)

	id, present, ok := queryID(w, r)
	if !ok {
		return
	}
	if !present {
		writeSuccess(w, http.StatusOK, "user", me, "")
		return
	}

	user, err := h.userService.Get(r.Context(), me, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "user", user, "")
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch domain.UserPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	user, err := h.userService.Update(r.Context(), currentUser(r), patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "user", user, "Profile updated successfully")
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.Delete(r.Context(), currentUser(r)); err != nil {
		respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", nil, "Account deleted successfully")
}
