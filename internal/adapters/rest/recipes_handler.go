package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kitchenlog/recipebox/internal/adapters/api"
	"github.com/kitchenlog/recipebox/internal/adapters/auth"
	"github.com/kitchenlog/recipebox/internal/platform/apperror"
	"github.com/kitchenlog/recipebox/internal/recipes/application"
	"github.com/kitchenlog/recipebox/internal/recipes/domain"
	"github.com/kitchenlog/recipebox/internal/recipes/ports"
)

// maxImageUploadBytes caps the in-memory portion of a multipart upload.
const maxImageUploadBytes = 10 << 20

type RecipesHandler struct {
	*BaseHandler
	service *application.RecipesService
}

func NewRecipesHandler(base *BaseHandler, service *application.RecipesService) *RecipesHandler {
	return &RecipesHandler{
		BaseHandler: base,
		service:     service,
	}
}

// ListRecipes handles GET /recipes
func (h *RecipesHandler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.WriteJSONError(w, r, string(apperror.CodeUnauthorized), "User ID not found in context", http.StatusUnauthorized)
		return
	}

	tagIDs, err := parseIDFilter(r.URL.Query().Get("tags"))
	if err != nil {
		h.WriteJSONError(w, r, string(apperror.CodeValidationFailed), "tags must be a comma-separated list of IDs", http.StatusBadRequest)
		return
	}
	ingredientIDs, err := parseIDFilter(r.URL.Query().Get("ingredients"))
	if err != nil {
		h.WriteJSONError(w, r, string(apperror.CodeValidationFailed), "ingredients must be a comma-separated list of IDs", http.StatusBadRequest)
		return
	}

	recipes, err := h.service.List(r.Context(), userID, ports.RecipeFilter{
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	response := make([]api.Recipe, 0, len(recipes))
	for _, recipe := range recipes {
		response = append(response, domainRecipeToAPI(recipe))
	}

	h.WriteJSONResponse(w, r, response, http.StatusOK)
}

// CreateRecipe handles POST /recipes
func (h *RecipesHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		h.WriteJSONError(w, r, string(apperror.CodeUnauthorized), "User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req api.NewRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteJSONError(w, r, string(apperror.CodeValidationFailed), "Invalid request body", http.StatusBadRequest)
		return
	}

	recipe, err := h.service.Create(r.Context(), userID, application.CreateRecipeParams{
		Title:       req.Title,
		Description: stringValue(req.Description),
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Link:        stringValue(req.Link),
		Tags:        specsFromNames(req.Tags),
		Ingredients: specsFromNames(req.Ingredients),
	})
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSONResponse(w, r, domainRecipeToDetail(recipe), http.StatusCreated)
}

// GetRecipe handles GET /recipes/{id}
func (h *RecipesHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	userID, recipeID, ok := h.recipeRequestIDs(w, r)
	if !ok {
		return
	}

	recipe, err := h.service.Get(r.Context(), userID, recipeID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSONResponse(w, r, domainRecipeToDetail(recipe), http.StatusOK)
}

// ReplaceRecipe handles PUT /recipes/{id}. Unlike PATCH, the writable scalar
// fields are all required.
func (h *RecipesHandler) ReplaceRecipe(w http.ResponseWriter, r *http.Request) {
	userID, recipeID, ok := h.recipeRequestIDs(w, r)
	if !ok {
		return
	}

	var req api.UpdateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteJSONError(w, r, string(apperror.CodeValidationFailed), "Invalid request body", http.StatusBadRequest)
		return
	}

	missing := map[string]any{}
	if req.Title == nil {
		missing["title"] = "this field is required"
	}
	if req.TimeMinutes == nil {
		missing["time_minutes"] = "this field is required"
	}
	if req.Price == nil {
		missing["price"] = "this field is required"
	}
	if len(missing) > 0 {
		h.WriteAppError(w, r, application.ErrInvalidRecipeData.WithDetails(missing))
		return
	}

	h.updateRecipe(w, r, userID, recipeID, req)
}

// PatchRecipe handles PATCH /recipes/{id}
func (h *RecipesHandler) PatchRecipe(w http.ResponseWriter, r *http.Request) {
	userID, recipeID, ok := h.recipeRequestIDs(w, r)
	if !ok {
		return
	}

	var req api.UpdateRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteJSONError(w, r, string(apperror.CodeValidationFailed), "Invalid request body", http.StatusBadRequest)
		return
	}

	h.updateRecipe(w, r, userID, recipeID, req)
}

func (h *RecipesHandler) updateRecipe(w http.ResponseWriter, r *http.Request, userID, recipeID int64, req api.UpdateRecipeRequest) {
	params := application.UpdateRecipeParams{
		Title:       req.Title,
		Description: req.Description,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Link:        req.Link,
	}
	// A present list replaces the associations; an absent one leaves them
	// alone. The pointer distinguishes "tags": [] from no tags key at all.
	if req.Tags != nil {
		params.Tags = specsFromNames(*req.Tags)
	}
	if req.Ingredients != nil {
		params.Ingredients = specsFromNames(*req.Ingredients)
	}

	recipe, err := h.service.Update(r.Context(), userID, recipeID, params)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSONResponse(w, r, domainRecipeToDetail(recipe), http.StatusOK)
}

// DeleteRecipe handles DELETE /recipes/{id}
func (h *RecipesHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	userID, recipeID, ok := h.recipeRequestIDs(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, recipeID); err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadRecipeImage handles POST /recipes/{id}/upload-image
func (h *RecipesHandler) UploadRecipeImage(w http.ResponseWriter, r *http.Request) {
	userID, recipeID, ok := h.recipeRequestIDs(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		h.WriteJSONError(w, r, string(apperror.CodeValidationFailed), "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.WriteAppError(w, r, application.ErrInvalidImage.WithDetails(map[string]any{"image": "no file was submitted"}))
		return
	}
	defer func() { _ = file.Close() }()

	recipe, err := h.service.UploadImage(r.Context(), userID, recipeID, header.Filename, file)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSONResponse(w, r, api.RecipeImage{
		Id:    recipe.ID,
		Image: stringToPointer(recipe.Image),
	}, http.StatusOK)
}

// recipeRequestIDs pulls the authenticated user and the {id} route parameter.
// A non-numeric ID is indistinguishable from a missing recipe.
func (h *RecipesHandler) recipeRequestIDs(w http.ResponseWriter, r *http.Request) (userID, recipeID int64, ok bool) {
	userID, found := auth.GetUserID(r.Context())
	if !found {
		h.WriteJSONError(w, r, string(apperror.CodeUnauthorized), "User ID not found in context", http.StatusUnauthorized)
		return 0, 0, false
	}

	recipeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || recipeID <= 0 {
		h.WriteJSONError(w, r, string(apperror.CodeNotFound), "recipe not found", http.StatusNotFound)
		return 0, 0, false
	}

	return userID, recipeID, true
}

// parseIDFilter parses a comma-separated ID list query parameter. An empty
// parameter means the filter is absent.
func parseIDFilter(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func specsFromNames(names []api.AttributeName) []domain.AttributeSpec {
	if names == nil {
		return nil
	}
	specs := make([]domain.AttributeSpec, 0, len(names))
	for _, n := range names {
		specs = append(specs, domain.AttributeSpec{Name: n.Name})
	}
	return specs
}

func domainRecipeToAPI(recipe *domain.Recipe) api.Recipe {
	return api.Recipe{
		Id:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price,
		Link:        recipe.Link,
		Tags:        domainAttributesToAPI(recipe.Tags),
		Ingredients: domainAttributesToAPI(recipe.Ingredients),
		Image:       stringToPointer(recipe.Image),
		CreatedAt:   recipe.CreatedAt,
	}
}

func domainRecipeToDetail(recipe *domain.Recipe) api.RecipeDetail {
	return api.RecipeDetail{
		Recipe:      domainRecipeToAPI(recipe),
		Description: recipe.Description,
	}
}

func domainAttributesToAPI(attrs []*domain.Attribute) []api.Attribute {
	out := make([]api.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, api.Attribute{Id: attr.ID, Name: attr.Name})
	}
	return out
}

// stringValue converts *string to its value, empty when nil
func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// stringToPointer converts string to *string, nil when empty
func stringToPointer(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
