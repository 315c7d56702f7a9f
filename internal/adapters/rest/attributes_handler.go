package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kitchenlog/recipebox/internal/adapters/api"
	"github.com/kitchenlog/recipebox/internal/adapters/auth"
	"github.com/kitchenlog/recipebox/internal/platform/apperror"
	"github.com/kitchenlog/recipebox/internal/recipes/application"
	"github.com/kitchenlog/recipebox/internal/recipes/domain"
)

// AttributesHandler serves both /tags and /ingredients; the two surfaces are
// identical apart from the attribute kind.
type AttributesHandler struct {
	*BaseHandler
	service *application.AttributesService
}

func NewAttributesHandler(base *BaseHandler, service *application.AttributesService) *AttributesHandler {
	return &AttributesHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /tags and GET /ingredients
func (h *AttributesHandler) List(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserID(r.Context())
		if !ok {
			h.WriteJSONError(w, r, string(apperror.CodeUnauthorized), "User ID not found in context", http.StatusUnauthorized)
			return
		}

		assignedOnly, err := parseBoolParam(r.URL.Query().Get("assigned_only"))
		if err != nil {
			h.WriteJSONError(w, r, string(apperror.CodeValidationFailed), "assigned_only must be a boolean", http.StatusBadRequest)
			return
		}

		attrs, err := h.service.List(r.Context(), userID, kind, assignedOnly)
		if err != nil {
			h.WriteAppError(w, r, err)
			return
		}

		h.WriteJSONResponse(w, r, domainAttributesToAPI(attrs), http.StatusOK)
	}
}

// Create handles POST /tags and POST /ingredients
func (h *AttributesHandler) Create(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.GetUserID(r.Context())
		if !ok {
			h.WriteJSONError(w, r, string(apperror.CodeUnauthorized), "User ID not found in context", http.StatusUnauthorized)
			return
		}

		var req api.AttributeName
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.WriteJSONError(w, r, string(apperror.CodeValidationFailed), "Invalid request body", http.StatusBadRequest)
			return
		}

		attr, err := h.service.Create(r.Context(), userID, kind, req.Name)
		if err != nil {
			h.WriteAppError(w, r, err)
			return
		}

		h.WriteJSONResponse(w, r, api.Attribute{Id: attr.ID, Name: attr.Name}, http.StatusCreated)
	}
}

// Update handles PATCH /tags/{id} and PATCH /ingredients/{id}
func (h *AttributesHandler) Update(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, attrID, ok := h.attrRequestIDs(w, r)
		if !ok {
			return
		}

		var req api.UpdateAttributeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.WriteJSONError(w, r, string(apperror.CodeValidationFailed), "Invalid request body", http.StatusBadRequest)
			return
		}

		attr, err := h.service.Rename(r.Context(), userID, kind, attrID, req.Name)
		if err != nil {
			h.WriteAppError(w, r, err)
			return
		}

		h.WriteJSONResponse(w, r, api.Attribute{Id: attr.ID, Name: attr.Name}, http.StatusOK)
	}
}

// Delete handles DELETE /tags/{id} and DELETE /ingredients/{id}
func (h *AttributesHandler) Delete(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, attrID, ok := h.attrRequestIDs(w, r)
		if !ok {
			return
		}

		if err := h.service.Delete(r.Context(), userID, kind, attrID); err != nil {
			h.WriteAppError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *AttributesHandler) attrRequestIDs(w http.ResponseWriter, r *http.Request) (userID, attrID int64, ok bool) {
	userID, found := auth.GetUserID(r.Context())
	if !found {
		h.WriteJSONError(w, r, string(apperror.CodeUnauthorized), "User ID not found in context", http.StatusUnauthorized)
		return 0, 0, false
	}

	attrID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || attrID <= 0 {
		h.WriteJSONError(w, r, string(apperror.CodeNotFound), "not found", http.StatusNotFound)
		return 0, 0, false
	}

	return userID, attrID, true
}

// parseBoolParam accepts the usual boolean spellings plus the 0/1 form the
// original API used. Empty means false.
func parseBoolParam(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}
