package handlers

import (
	"net/http"

	"github.com/diagnosis/chefconnect/services/marketplace/internal/domain"
)

// GetChefs is public: one chef by ?id=, or a list ordered by rating.
func (h *Handlers) GetChefs(w http.ResponseWriter, r *http.Request) {
	id, present, ok := queryID(w, r)
	if !ok {
		return
	}
	if present {
		chef, err := h.chefService.Get(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeSuccess(w, http.StatusOK, "chef", chef, "")
		return
	}

	limit, offset := parsePagination(r)
	q := r.URL.Query()
	chefs, err := h.chefService.List(r.Context(), domain.ChefFilter{
		AvailableOnly: q.Get("available") == "true",
		Specialty:     q.Get("specialty"),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if chefs == nil {
		chefs = []domain.Chef{}
	}
	writeSuccess(w, http.StatusOK, "chefs", chefs, "")
}

func (h *Handlers) CreateChef(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateChefReq
	if !decodeJSON(w, r, &req) {
		return
	}

	chef, err := h.chefService.Create(r.Context(), currentUser(r), &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "chef", chef, "Chef profile created successfully")
}

func (h *Handlers) UpdateChef(w http.ResponseWriter, r *http.Request) {
	var patch domain.ChefPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	chef, err := h.chefService.Update(r.Context(), currentUser(r), &patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "chef", chef, "Chef profile updated successfully")
}

func (h *Handlers) DeleteChef(w http.ResponseWriter, r *http.Request) {
	if err := h.chefService.Delete(r.Context(), currentUser(r)); err != nil {
		respondError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", nil, "Chef profile deleted successfully")
}
