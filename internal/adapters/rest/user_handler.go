package rest

import (
	"encoding/json"
	"net/http"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/kitchenlog/recipebox/internal/adapters/api"
	"github.com/kitchenlog/recipebox/internal/adapters/auth"
	"github.com/kitchenlog/recipebox/internal/platform/apperror"
	"github.com/kitchenlog/recipebox/internal/users/application"
	"github.com/kitchenlog/recipebox/internal/users/domain"
)

type UserHandler struct {
	*BaseHandler
	service *application.UserService
	tokens  *auth.TokenService
}

func NewUserHandler(base *BaseHandler, service *application.UserService, tokens *auth.TokenService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		service:     service,
		tokens:      tokens,
	}
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req api.NewUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteJSONError(w, r, string(apperror.CodeValidationFailed), "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.Register(r.Context(), application.RegisterParams{
		Email:    string(req.Email),
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSONResponse(w, r, domainUserToAPI(user), http.StatusCreated)
}

// CreateToken handles POST /users/token
func (h *UserHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req api.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteJSONError(w, r, string(apperror.CodeValidationFailed), "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.Authenticate(r.Context(), string(req.Email), req.Password)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error(r.Context(), "failed to issue token", "error", err, "user_id", user.ID)
		h.WriteJSONError(w, r, string(apperror.CodeInternalError), "Failed to issue token", http.StatusInternalServerError)
		return
	}

	h.WriteJSONResponse(w, r, api.TokenResponse{Token: token}, http.StatusOK)
}

// GetCurrentUser handles GET /users/me
func (h *UserHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.WriteJSONError(w, r, string(apperror.CodeUnauthorized), "User ID not found in context", http.StatusUnauthorized)
		return
	}

	user, err := h.service.GetByID(r.Context(), userID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSONResponse(w, r, domainUserToAPI(user), http.StatusOK)
}

// UpdateCurrentUser handles PATCH /users/me
func (h *UserHandler) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.WriteJSONError(w, r, string(apperror.CodeUnauthorized), "User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req api.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteJSONError(w, r, string(apperror.CodeValidationFailed), "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, application.UpdateProfileParams{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSONResponse(w, r, domainUserToAPI(user), http.StatusOK)
}

func domainUserToAPI(user *domain.User) api.User {
	return api.User{
		Email: openapi_types.Email(user.Email),
		Name:  user.Name,
	}
}
